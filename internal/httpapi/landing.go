package httpapi

import (
	"embed"
	"html/template"
	"net/http"

	"voiced/pkg/types"
)

//go:embed templates/index.html
var templateFS embed.FS

var landingTmpl = template.Must(template.ParseFS(templateFS, "templates/index.html"))

// landingVoice is the per-voice config handed to the page script.
type landingVoice struct {
	DefaultText string `json:"default_text"`
	AvatarVideo string `json:"avatar_video,omitempty"`
}

type landingData struct {
	Voices       []types.VoiceInfo
	VoiceConfig  map[string]landingVoice
	DefaultVoice string
}

func (h *handlers) landing(w http.ResponseWriter, r *http.Request) {
	reg := h.svc.Voices()
	data := landingData{
		VoiceConfig:  make(map[string]landingVoice, reg.Len()),
		DefaultVoice: reg.Default(),
	}
	for _, v := range reg.List() {
		data.Voices = append(data.Voices, types.VoiceInfo{Name: v.Name, Default: v.Name == reg.Default()})
		data.VoiceConfig[v.Name] = landingVoice{DefaultText: v.DefaultText, AvatarVideo: avatarURL(v.Avatar)}
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := landingTmpl.Execute(w, data); err != nil && zlog != nil {
		zlog.Error().Err(err).Msg("render landing page")
	}
}
