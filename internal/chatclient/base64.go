package chatclient

import "encoding/base64"

func encodeBase64(data []byte) string {
	return base64.StdEncoding.EncodeToString(data)
}
