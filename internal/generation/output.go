package generation

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// Category identifies the shape a completed task's payload must have. Every
// category has exactly one validator and one extractor; ParseOutput is
// exhaustive over the set.
type Category string

const (
	CategoryImage   Category = "image"
	CategoryVideo   Category = "video"
	CategoryAudio   Category = "audio"
	CategoryModel3D Category = "model3d"
	CategoryMusic   Category = "music"
)

// ParseCategory validates a category string from an untrusted source.
func ParseCategory(s string) (Category, bool) {
	switch Category(strings.ToLower(strings.TrimSpace(s))) {
	case CategoryImage:
		return CategoryImage, true
	case CategoryVideo:
		return CategoryVideo, true
	case CategoryAudio:
		return CategoryAudio, true
	case CategoryModel3D:
		return CategoryModel3D, true
	case CategoryMusic:
		return CategoryMusic, true
	}
	return "", false
}

// Output is the validated, extracted result of a completed task. Exactly one
// variant is populated, matching Category.
type Output struct {
	Category Category

	Image   *ImageOutput
	Video   *VideoOutput
	Audio   *AudioOutput
	Model3D *Model3DOutput
	Music   *MusicOutput
}

// ImageOutput lists the generated image URLs, single- and multi-image
// payloads normalized into one flat list.
type ImageOutput struct {
	URLs []string
}

// VideoOutput carries the single generated video URL.
type VideoOutput struct {
	URL string
}

// AudioOutput carries the single generated audio URL.
type AudioOutput struct {
	URL string
}

// Model3DOutput carries the generated asset file plus optional companions.
type Model3DOutput struct {
	ModelFile    string
	PreviewVideo string
	CutoutImage  string
}

// MusicOutput carries the normalized clip list, ordered by clip id.
type MusicOutput struct {
	Clips []Clip
}

// Clip is one generated music clip.
type Clip struct {
	ID       string  `json:"id"`
	AudioURL string  `json:"audio_url"`
	VideoURL string  `json:"video_url,omitempty"`
	ImageURL string  `json:"image_url,omitempty"`
	Title    string  `json:"title,omitempty"`
	Tags     string  `json:"tags,omitempty"`
	Duration float64 `json:"duration,omitempty"`
}

// wire payload shapes, one per category

type imagePayload struct {
	ImageURL  string   `json:"image_url"`
	ImageURLs []string `json:"image_urls"`
}

type videoPayload struct {
	VideoURL string `json:"video_url"`
}

type audioPayload struct {
	AudioURL string `json:"audio_url"`
}

type model3DPayload struct {
	ModelFile    string `json:"model_file"`
	PreviewVideo string `json:"preview_video"`
	CutoutImage  string `json:"cutout_image"`
}

type clipPayload struct {
	AudioURL string  `json:"audio_url"`
	VideoURL string  `json:"video_url"`
	ImageURL string  `json:"image_url"`
	Title    string  `json:"title"`
	Tags     string  `json:"tags"`
	Duration float64 `json:"duration"`
}

type musicPayload struct {
	Clips map[string]clipPayload `json:"clips"`
}

// decodePayload unmarshals a raw output into both a typed destination and a
// key-presence map. Type mismatches are reported with the offending field;
// this is the first violation a caller sees.
func decodePayload(jobID string, cat Category, raw json.RawMessage, dst any) (map[string]json.RawMessage, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil, &ValidationError{JobID: jobID, Category: cat, Reason: "output is missing"}
	}
	var keys map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &keys); err != nil {
		return nil, &ValidationError{JobID: jobID, Category: cat, Reason: "output is not a JSON object"}
	}
	if err := json.Unmarshal(trimmed, dst); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) && typeErr.Field != "" {
			return nil, &ValidationError{
				JobID:    jobID,
				Category: cat,
				Field:    typeErr.Field,
				Reason:   fmt.Sprintf("expected %s, got %s", typeErr.Type, typeErr.Value),
			}
		}
		return nil, &ValidationError{JobID: jobID, Category: cat, Reason: err.Error()}
	}
	return keys, nil
}

func hasKey(keys map[string]json.RawMessage, names ...string) bool {
	for _, name := range names {
		if _, ok := keys[name]; ok {
			return true
		}
	}
	return false
}
