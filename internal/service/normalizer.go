package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/goccy/go-json"

	"github.com/watching-app/watching/internal/domain"
	"github.com/watching-app/watching/internal/logging"
	"github.com/watching-app/watching/internal/metrics"
	"github.com/watching-app/watching/internal/model"
	"github.com/watching-app/watching/internal/validation"
)

// Normalizer parses oracle output into candidates. Output that does not parse
// gets exactly one repair round trip through the oracle.
type Normalizer struct {
	oracle      Oracle
	temperature float32
}

func NewNormalizer(oracle Oracle, repairTemperature float32) *Normalizer {
	return &Normalizer{oracle: oracle, temperature: repairTemperature}
}

func (n *Normalizer) Normalize(ctx context.Context, raw string) ([]domain.RawCandidate, error) {
	candidates, err := parseCandidates(raw)
	if err == nil {
		return candidates, nil
	}
	logging.Ctx(ctx).Warn().Err(err).Msg("model output did not parse, requesting repair")

	repaired, err := n.repair(ctx, raw)
	if err != nil {
		metrics.NormalizerRepairs.WithLabelValues("failed").Inc()
		return nil, fmt.Errorf("%w: repair call: %w", domain.ErrMalformedRecommendation, err)
	}

	candidates, err = parseCandidates(repaired)
	if err != nil {
		metrics.NormalizerRepairs.WithLabelValues("failed").Inc()
		return nil, fmt.Errorf("%w: after repair: %w", domain.ErrMalformedRecommendation, err)
	}
	metrics.NormalizerRepairs.WithLabelValues("ok").Inc()
	return candidates, nil
}

func (n *Normalizer) repair(ctx context.Context, raw string) (string, error) {
	system, err := render("repair_system.tmpl", nil)
	if err != nil {
		return "", err
	}
	user, err := render("repair_user.tmpl", struct{ Raw string }{raw})
	if err != nil {
		return "", err
	}
	return n.oracle.Complete(ctx, model.Request{
		Purpose:     "repair",
		System:      system,
		User:        user,
		Temperature: n.temperature,
	})
}

// maxCandidates bounds catalog fan-out from a runaway completion; the prompt
// asks for 10.
const maxCandidates = 20

var errNoCandidates = errors.New("no recommendations in output")

// parseCandidates accepts {"recommendations": [...]} or a bare array,
// optionally inside a Markdown code fence.
func parseCandidates(raw string) ([]domain.RawCandidate, error) {
	body := []byte(stripCodeFence(raw))
	if len(body) == 0 {
		return nil, errNoCandidates
	}

	list := body
	if body[0] == '{' {
		var wrapper struct {
			Recommendations json.RawMessage `json:"recommendations"`
		}
		if err := json.Unmarshal(body, &wrapper); err != nil {
			return nil, fmt.Errorf("decode output: %w", err)
		}
		list = bytes.TrimSpace(wrapper.Recommendations)
		if len(list) == 0 || list[0] != '[' {
			return nil, errors.New(`"recommendations" is not an array`)
		}
	}

	var candidates []domain.RawCandidate
	if err := json.Unmarshal(list, &candidates); err != nil {
		return nil, fmt.Errorf("decode recommendations: %w", err)
	}
	if len(candidates) == 0 {
		return nil, errNoCandidates
	}
	if len(candidates) > maxCandidates {
		return nil, fmt.Errorf("%d recommendations, at most %d allowed", len(candidates), maxCandidates)
	}

	for i := range candidates {
		c := &candidates[i]
		c.Title = strings.TrimSpace(c.Title)
		c.Reason = strings.TrimSpace(c.Reason)
		mt, ok := domain.ParseMediaType(string(c.MediaType))
		if !ok {
			return nil, fmt.Errorf("recommendation %d: media_type %q", i, c.MediaType)
		}
		c.MediaType = mt
		if err := validation.Struct(c); err != nil {
			return nil, fmt.Errorf("recommendation %d: %w", i, err)
		}
	}
	return candidates, nil
}

func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	// drop the opening fence line, which may carry a language tag
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[i+1:]
	} else {
		s = strings.TrimPrefix(s, "```")
	}
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}
