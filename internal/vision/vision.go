// Package vision implements the Vision Fallback (C7): resolve an element by
// screenshotting its window and asking a ChatClient to locate it, when
// structural resolution failed and the step carries a natural-language
// description (spec §4.7). Every result is treated as non-deterministic;
// callers (internal/backend) are responsible for downgrading the step's
// status to Warning — this package never claims a match is a pass.
package vision

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/windrift/uiflow/internal/backend"
	"github.com/windrift/uiflow/internal/chatclient"
)

// reply mirrors the strict JSON shape spec §4.7 step 2 requires the model
// to answer with; x/y/width/height are in image pixel space.
type reply struct {
	Found       bool    `json:"found"`
	X           int     `json:"x"`
	Y           int     `json:"y"`
	Width       int     `json:"width"`
	Height      int     `json:"height"`
	Confidence  float64 `json:"confidence"`
	Description string  `json:"description"`
}

const systemPrompt = `You are a precise UI element locator. You are given a screenshot and a ` +
	`natural-language description of one UI element within it. Reply with ONLY a JSON object, ` +
	`no prose, no markdown fence, matching exactly: ` +
	`{"found": bool, "x": int, "y": int, "width": int, "height": int, "confidence": float, "description": string}. ` +
	`x,y,width,height are in image pixel space, the bounding box of the described element. ` +
	`If the element cannot be found, set found=false and confidence=0.`

// Resolver implements backend.VisionResolver over a chatclient.ChatClient.
type Resolver struct {
	Chat       chatclient.ChatClient
	ArtifactDir string // directory screenshots are saved to; "" disables saving
}

// NewResolver constructs a Resolver. artifactDir may be empty to skip
// persisting the screenshot that triggered the fallback.
func NewResolver(chat chatclient.ChatClient, artifactDir string) *Resolver {
	return &Resolver{Chat: chat, ArtifactDir: artifactDir}
}

// Resolve implements backend.VisionResolver (spec §4.7's 6-step flow).
func (r *Resolver) Resolve(ctx context.Context, image []byte, description string, region backend.Rect, threshold float64) (backend.VisionResult, error) {
	if r.Chat == nil {
		return backend.VisionResult{}, fmt.Errorf("vision: no chat client configured")
	}
	if threshold <= 0 {
		threshold = 0.7
	}

	r.saveArtifact(image)

	userPrompt := fmt.Sprintf("Locate this element in the screenshot: %q", description)
	raw, err := r.Chat.CompleteWithImage(ctx, systemPrompt+"\n\n"+userPrompt, image, chatclient.Options{
		MaxOutputTokens: 512,
		ResponseFormat:  chatclient.ResponseJSON,
	})
	if err != nil {
		return backend.VisionResult{}, fmt.Errorf("vision: chat call failed: %w", err)
	}

	var rep reply
	cleaned := chatclient.ExtractJSON(raw)
	if err := json.Unmarshal([]byte(cleaned), &rep); err != nil {
		return backend.VisionResult{}, fmt.Errorf("vision: could not parse reply as JSON: %w", err)
	}

	if !rep.Found {
		return backend.VisionResult{Found: false, Description: description}, nil
	}
	if rep.Confidence < threshold {
		log.Printf("[Vision] candidate below threshold (%.2f < %.2f), treating as not found", rep.Confidence, threshold)
		return backend.VisionResult{Found: false, Confidence: rep.Confidence, Description: description}, nil
	}

	// Map image-space coordinates to screen-space by adding the window
	// region's origin, then compute the bounding box's center (spec §4.7 step 5).
	centerX := region.X + rep.X + rep.Width/2
	centerY := region.Y + rep.Y + rep.Height/2

	return backend.VisionResult{
		Found:       true,
		X:           centerX,
		Y:           centerY,
		Confidence:  rep.Confidence,
		Description: rep.Description,
	}, nil
}

func (r *Resolver) saveArtifact(image []byte) {
	if r.ArtifactDir == "" {
		return
	}
	if err := os.MkdirAll(r.ArtifactDir, 0o755); err != nil {
		log.Printf("[Vision] could not create artifact dir %q: %v", r.ArtifactDir, err)
		return
	}
	name := fmt.Sprintf("vision_%d_%s.png", time.Now().Unix(), uuid.NewString())
	path := filepath.Join(r.ArtifactDir, name)
	if err := os.WriteFile(path, image, 0o644); err != nil {
		log.Printf("[Vision] could not save screenshot %q: %v", path, err)
	}
}
