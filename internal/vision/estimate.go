package vision

import (
	"encoding/json"
	"fmt"
	"strings"
)

const maxPlausibleAge = 150

// agePrompt asks a hosted vision model for the same JSON shape the
// websocket service returns.
const agePrompt = `You estimate the apparent age of the person in a webcam frame.
Look for a single human face. Reply with JSON only, no other text:
{"face_found": true, "age": 31.5}
If there is no clearly visible face reply {"face_found": false}.`

type estimateResponse struct {
	FaceFound bool     `json:"face_found"`
	Age       *float64 `json:"age"`
	Error     string   `json:"error,omitempty"`
}

// parseEstimate extracts the JSON object from a model reply. Models sometimes
// wrap it in prose or code fences, so only the outermost braces are decoded.
func parseEstimate(response string) (*Estimate, error) {
	jsonStart := strings.Index(response, "{")
	jsonEnd := strings.LastIndex(response, "}")
	if jsonStart == -1 || jsonEnd == -1 || jsonEnd <= jsonStart {
		return nil, fmt.Errorf("%w: no JSON object in %q", ErrMalformedEstimate, response)
	}

	var resp estimateResponse
	if err := json.Unmarshal([]byte(response[jsonStart:jsonEnd+1]), &resp); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedEstimate, err)
	}
	return resp.estimate()
}

func (r estimateResponse) estimate() (*Estimate, error) {
	if r.Error != "" {
		return nil, fmt.Errorf("estimation service: %s", r.Error)
	}
	if !r.FaceFound {
		return nil, nil
	}
	if r.Age == nil {
		return nil, fmt.Errorf("%w: face found without age", ErrMalformedEstimate)
	}
	if *r.Age < 0 || *r.Age > maxPlausibleAge {
		return nil, fmt.Errorf("%w: age %.1f out of range", ErrMalformedEstimate, *r.Age)
	}
	return &Estimate{Age: *r.Age}, nil
}
