package chatclient

import "context"

// Fake is a scripted ChatClient test double (grounded on the teacher's
// hand-rolled fakes over mocks for capability boundaries, e.g.
// internal/core/node_test.go's retryBaseNode). Replies are consumed in
// order; CompleteWithImage and Complete share the same queue since the
// pack pipeline and vision fallback never call the same Fake concurrently
// in tests.
type Fake struct {
	Replies []string
	Err     error
	calls   int
	Prompts []string
}

func (f *Fake) Complete(ctx context.Context, system, user string, opts Options) (string, error) {
	f.Prompts = append(f.Prompts, user)
	return f.next()
}

func (f *Fake) CompleteWithImage(ctx context.Context, user string, image []byte, opts Options) (string, error) {
	f.Prompts = append(f.Prompts, user)
	return f.next()
}

func (f *Fake) next() (string, error) {
	if f.Err != nil {
		return "", f.Err
	}
	if f.calls >= len(f.Replies) {
		if len(f.Replies) == 0 {
			return "", nil
		}
		return f.Replies[len(f.Replies)-1], nil
	}
	r := f.Replies[f.calls]
	f.calls++
	return r, nil
}
