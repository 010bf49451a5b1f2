package domain

import "errors"

var (
	ErrValidation              = errors.New("invalid request")
	ErrUpstreamGeneration      = errors.New("recommendation generation failed")
	ErrMalformedRecommendation = errors.New("malformed recommendation output")
	ErrRecommendationNotFound  = errors.New("recommendation not found")
)
