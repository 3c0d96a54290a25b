package provider

import (
	"fmt"
	"net/http"
)

// field maps one Params value onto a wire key. value reports false when the
// key should be left out of the request.
type field struct {
	key   string
	value func(p *Params) (any, bool)
}

type wire struct {
	path   string
	auth   func(req *http.Request, apiKey string)
	fields []field
}

func (w wire) body(p *Params) map[string]any {
	out := make(map[string]any, len(w.fields))
	for _, f := range w.fields {
		if v, ok := f.value(p); ok {
			out[f.key] = v
		}
	}
	return out
}

var wires = map[Provider]wire{
	OpenAI: {
		path: "/v1/images/generations",
		auth: func(req *http.Request, apiKey string) {
			req.Header.Set("Authorization", "Bearer "+apiKey)
		},
		fields: []field{
			{"prompt", func(p *Params) (any, bool) { return p.Prompt, true }},
			{"model", func(p *Params) (any, bool) { return p.Model, true }},
			{"size", func(p *Params) (any, bool) {
				if p.Resolution != "" {
					return p.Resolution, true
				}
				return fmt.Sprintf("%dx%d", p.Width, p.Height), true
			}},
			{"n", intPtr(func(p *Params) *int { return p.NImages })},
			{"num_inference_steps", intPtr(func(p *Params) *int { return p.NumSteps })},
			{"guidance_scale", func(p *Params) (any, bool) { return deref(p.Scale) }},
			{"response_format", func(p *Params) (any, bool) {
				if p.ResponseFormat != "" {
					return p.ResponseFormat, true
				}
				return "b64_json", true
			}},
			{"seed", func(p *Params) (any, bool) { return deref(p.Seed) }},
			{"imageDataUrl", str(func(p *Params) string { return p.ImageDataURL })},
			{"imageDataUrls", func(p *Params) (any, bool) { return p.ImageDataURLs, len(p.ImageDataURLs) > 0 }},
			{"maskDataUrl", str(func(p *Params) string { return p.MaskDataURL })},
			{"kontext_max_mode", func(p *Params) (any, bool) { return deref(p.KontextMaxMode) }},
		},
	},
	Legacy: {
		path: "/api/generate-image",
		auth: func(req *http.Request, apiKey string) {
			req.Header.Set("x-api-key", apiKey)
		},
		fields: []field{
			{"prompt", func(p *Params) (any, bool) { return p.Prompt, true }},
			{"model", func(p *Params) (any, bool) { return p.Model, true }},
			{"width", func(p *Params) (any, bool) { return p.Width, true }},
			{"height", func(p *Params) (any, bool) { return p.Height, true }},
			{"negative_prompt", str(func(p *Params) string { return p.NegativePrompt })},
			{"nImages", intPtr(func(p *Params) *int { return p.NImages })},
			{"num_steps", intPtr(func(p *Params) *int { return p.NumSteps })},
			{"resolution", str(func(p *Params) string { return p.Resolution })},
			{"sampler_name", str(func(p *Params) string { return p.SamplerName })},
			{"scale", func(p *Params) (any, bool) { return deref(p.Scale) }},
			{"imageDataUrl", str(func(p *Params) string { return p.ImageDataURL })},
			{"kontext_max_mode", func(p *Params) (any, bool) { return deref(p.KontextMaxMode) }},
			{"seed", func(p *Params) (any, bool) { return deref(p.Seed) }},
		},
	},
}

func str(get func(p *Params) string) func(p *Params) (any, bool) {
	return func(p *Params) (any, bool) {
		s := get(p)
		return s, s != ""
	}
}

func intPtr(get func(p *Params) *int) func(p *Params) (any, bool) {
	return func(p *Params) (any, bool) { return deref(get(p)) }
}

func deref[T any](v *T) (any, bool) {
	if v == nil {
		return nil, false
	}
	return *v, true
}
