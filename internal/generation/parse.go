package generation

import (
	"encoding/json"
	"sort"
	"strings"
)

// ParseOutput validates a completed task's raw payload against the declared
// category and extracts the caller-facing representation. Pure function: no
// I/O, input never mutated. A payload that validates but yields no concrete
// resource is a NoResourceError, never an empty success.
func ParseOutput(jobID string, cat Category, raw json.RawMessage) (*Output, error) {
	switch cat {
	case CategoryImage:
		return parseImageOutput(jobID, raw)
	case CategoryVideo:
		return parseVideoOutput(jobID, raw)
	case CategoryAudio:
		return parseAudioOutput(jobID, raw)
	case CategoryModel3D:
		return parseModel3DOutput(jobID, raw)
	case CategoryMusic:
		return parseMusicOutput(jobID, raw)
	default:
		return nil, &ValidationError{JobID: jobID, Category: cat, Reason: "unsupported output category"}
	}
}

func parseImageOutput(jobID string, raw json.RawMessage) (*Output, error) {
	var payload imagePayload
	keys, err := decodePayload(jobID, CategoryImage, raw, &payload)
	if err != nil {
		return nil, err
	}
	if !hasKey(keys, "image_url", "image_urls") {
		return nil, &ValidationError{
			JobID:    jobID,
			Category: CategoryImage,
			Reason:   "expected image_url or image_urls",
		}
	}
	urls := make([]string, 0, len(payload.ImageURLs)+1)
	if u := strings.TrimSpace(payload.ImageURL); u != "" {
		urls = append(urls, u)
	}
	for _, u := range payload.ImageURLs {
		if u = strings.TrimSpace(u); u != "" {
			urls = append(urls, u)
		}
	}
	if len(urls) == 0 {
		return nil, &NoResourceError{JobID: jobID, Category: CategoryImage}
	}
	return &Output{Category: CategoryImage, Image: &ImageOutput{URLs: urls}}, nil
}

func parseVideoOutput(jobID string, raw json.RawMessage) (*Output, error) {
	var payload videoPayload
	keys, err := decodePayload(jobID, CategoryVideo, raw, &payload)
	if err != nil {
		return nil, err
	}
	if !hasKey(keys, "video_url") {
		return nil, &ValidationError{JobID: jobID, Category: CategoryVideo, Reason: "expected video_url"}
	}
	url := strings.TrimSpace(payload.VideoURL)
	if url == "" {
		return nil, &NoResourceError{JobID: jobID, Category: CategoryVideo}
	}
	return &Output{Category: CategoryVideo, Video: &VideoOutput{URL: url}}, nil
}

func parseAudioOutput(jobID string, raw json.RawMessage) (*Output, error) {
	var payload audioPayload
	keys, err := decodePayload(jobID, CategoryAudio, raw, &payload)
	if err != nil {
		return nil, err
	}
	if !hasKey(keys, "audio_url") {
		return nil, &ValidationError{JobID: jobID, Category: CategoryAudio, Reason: "expected audio_url"}
	}
	url := strings.TrimSpace(payload.AudioURL)
	if url == "" {
		return nil, &NoResourceError{JobID: jobID, Category: CategoryAudio}
	}
	return &Output{Category: CategoryAudio, Audio: &AudioOutput{URL: url}}, nil
}

func parseModel3DOutput(jobID string, raw json.RawMessage) (*Output, error) {
	var payload model3DPayload
	keys, err := decodePayload(jobID, CategoryModel3D, raw, &payload)
	if err != nil {
		return nil, err
	}
	if !hasKey(keys, "model_file") {
		return nil, &ValidationError{JobID: jobID, Category: CategoryModel3D, Reason: "expected model_file"}
	}
	modelFile := strings.TrimSpace(payload.ModelFile)
	if modelFile == "" {
		return nil, &NoResourceError{JobID: jobID, Category: CategoryModel3D}
	}
	return &Output{Category: CategoryModel3D, Model3D: &Model3DOutput{
		ModelFile:    modelFile,
		PreviewVideo: strings.TrimSpace(payload.PreviewVideo),
		CutoutImage:  strings.TrimSpace(payload.CutoutImage),
	}}, nil
}

func parseMusicOutput(jobID string, raw json.RawMessage) (*Output, error) {
	var payload musicPayload
	keys, err := decodePayload(jobID, CategoryMusic, raw, &payload)
	if err != nil {
		return nil, err
	}
	if !hasKey(keys, "clips") {
		return nil, &ValidationError{JobID: jobID, Category: CategoryMusic, Reason: "expected clips"}
	}
	if len(payload.Clips) == 0 {
		return nil, &ValidationError{JobID: jobID, Category: CategoryMusic, Field: "clips", Reason: "no clips present"}
	}
	ids := make([]string, 0, len(payload.Clips))
	for id := range payload.Clips {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	clips := make([]Clip, 0, len(ids))
	for _, id := range ids {
		c := payload.Clips[id]
		audio := strings.TrimSpace(c.AudioURL)
		if audio == "" {
			continue
		}
		clips = append(clips, Clip{
			ID:       id,
			AudioURL: audio,
			VideoURL: strings.TrimSpace(c.VideoURL),
			ImageURL: strings.TrimSpace(c.ImageURL),
			Title:    strings.TrimSpace(c.Title),
			Tags:     strings.TrimSpace(c.Tags),
			Duration: c.Duration,
		})
	}
	if len(clips) == 0 {
		return nil, &NoResourceError{JobID: jobID, Category: CategoryMusic}
	}
	return &Output{Category: CategoryMusic, Music: &MusicOutput{Clips: clips}}, nil
}
