package service

import (
	"context"
	"fmt"

	"github.com/goccy/go-json"

	"github.com/watching-app/watching/internal/domain"
	"github.com/watching-app/watching/internal/model"
)

// Oracle is the language model as the pipeline sees it.
type Oracle interface {
	Complete(ctx context.Context, req model.Request) (string, error)
}

// Generator turns a preference set into the oracle's raw answer.
type Generator struct {
	oracle      Oracle
	temperature float32
}

func NewGenerator(oracle Oracle, temperature float32) *Generator {
	return &Generator{oracle: oracle, temperature: temperature}
}

type userPrompt struct {
	Favorites  string
	Liked      string
	Disliked   string
	NotWatched string
}

func buildUserPrompt(prefs domain.PreferenceSet) (string, error) {
	prefs.Normalize()

	var data userPrompt
	for _, f := range []struct {
		dst  *string
		list []domain.TitleRef
	}{
		{&data.Favorites, prefs.Favorites},
		{&data.Liked, prefs.Liked},
		{&data.Disliked, prefs.Disliked},
		{&data.NotWatched, prefs.NotWatched},
	} {
		b, err := json.Marshal(f.list)
		if err != nil {
			return "", fmt.Errorf("marshal preferences: %w", err)
		}
		*f.dst = string(b)
	}
	return render("user.tmpl", data)
}

// Generate returns the unparsed completion text.
func (g *Generator) Generate(ctx context.Context, prefs domain.PreferenceSet) (string, error) {
	system, err := render("system.tmpl", nil)
	if err != nil {
		return "", err
	}
	user, err := buildUserPrompt(prefs)
	if err != nil {
		return "", err
	}

	raw, err := g.oracle.Complete(ctx, model.Request{
		Purpose:     "generate",
		System:      system,
		User:        user,
		Temperature: g.temperature,
	})
	if err != nil {
		return "", fmt.Errorf("%w: %w", domain.ErrUpstreamGeneration, err)
	}
	return raw, nil
}
