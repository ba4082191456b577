package gemini

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
)

// MaxNearbyPlaces bounds the nearby-places list.
const MaxNearbyPlaces = 5

// User-facing failure messages per operation.
const (
	MsgDescribeImage    = "Could not retrieve information from Gemini API."
	MsgDescribeLocation = "Could not retrieve information for the location from Gemini API."
	MsgNearbyPlaces     = "Could not retrieve nearby places from Gemini API."
)

// ImageDescription is the model's narrative for a photographed landmark.
type ImageDescription struct {
	Text string
	Raw  string
}

// PlaceHint is one nearby heritage site. ImageQuery is a search phrase, not a URL.
type PlaceHint struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	ImageQuery  string `json:"imageUrl"`
}

func gatewayError(op, message string, err error) error {
	return &GatewayError{Op: op, UserMessage: message, Err: err}
}

// DescribeImage asks the model for the history of the landmark in image.
func (c *Client) DescribeImage(ctx context.Context, image []byte, mimeType string) (ImageDescription, error) {
	const op = "describe_image"
	var empty ImageDescription
	mimeType = strings.TrimSpace(mimeType)
	if len(image) == 0 {
		return empty, gatewayError(op, MsgDescribeImage, errors.New("image required"))
	}
	if mimeType == "" {
		return empty, gatewayError(op, MsgDescribeImage, errors.New("mime type required"))
	}
	if !c.Configured() {
		return empty, gatewayError(op, MsgDescribeImage, errors.New("api key required"))
	}

	payload := generateRequest{
		Contents: []content{{
			Parts: []part{
				{InlineData: &inlineData{MimeType: mimeType, Data: base64.StdEncoding.EncodeToString(image)}},
				{Text: imagePrompt},
			},
		}},
		GenerationConfig: &generationConfig{ThinkingConfig: &thinkingConfig{ThinkingBudget: 0}},
	}
	text, raw, err := c.generate(ctx, payload, "gemini "+op)
	if err != nil {
		return empty, gatewayError(op, MsgDescribeImage, err)
	}
	return ImageDescription{Text: text, Raw: string(raw)}, nil
}

// DescribeLocation asks for a titled narrative about the area around lat/lon
// written in languageName. languageTag is recorded for logging only; the
// model is steered by the name.
func (c *Client) DescribeLocation(ctx context.Context, lat, lon float64, languageTag, languageName string) (string, error) {
	const op = "describe_location"
	if !c.Configured() {
		return "", gatewayError(op, MsgDescribeLocation, errors.New("api key required"))
	}
	languageName = strings.TrimSpace(languageName)
	if languageName == "" {
		return "", gatewayError(op, MsgDescribeLocation, fmt.Errorf("language name required for %q", languageTag))
	}

	payload := generateRequest{
		Contents: []content{{Parts: []part{{Text: locationPrompt(lat, lon, languageName)}}}},
	}
	text, _, err := c.generate(ctx, payload, "gemini "+op)
	if err != nil {
		return "", gatewayError(op, MsgDescribeLocation, err)
	}
	return text, nil
}

// NearbyPlaces lists up to MaxNearbyPlaces heritage sites near lat/lon.
func (c *Client) NearbyPlaces(ctx context.Context, lat, lon float64) ([]PlaceHint, error) {
	const op = "nearby_places"
	if !c.Configured() {
		return nil, gatewayError(op, MsgNearbyPlaces, errors.New("api key required"))
	}

	payload := generateRequest{
		Contents: []content{{Parts: []part{{Text: nearbyPrompt(lat, lon)}}}},
		GenerationConfig: &generationConfig{
			ResponseMimeType: "application/json",
			ResponseSchema:   nearbySchema,
		},
	}
	text, _, err := c.generate(ctx, payload, "gemini "+op)
	if err != nil {
		return nil, gatewayError(op, MsgNearbyPlaces, err)
	}

	places, err := parseNearby(text)
	if err != nil {
		return nil, gatewayError(op, MsgNearbyPlaces, err)
	}
	return places, nil
}

func parseNearby(text string) ([]PlaceHint, error) {
	var parsed struct {
		Places *[]PlaceHint `json:"places"`
	}
	if err := DecodeModelJSON(text, &parsed); err != nil {
		return nil, &ParseError{Reason: err.Error(), Snippet: summarizePayloadSnippet(text)}
	}
	if parsed.Places == nil {
		return nil, &ParseError{Reason: "missing places", Snippet: summarizePayloadSnippet(text)}
	}

	places := make([]PlaceHint, 0, len(*parsed.Places))
	for i, place := range *parsed.Places {
		place.Name = strings.TrimSpace(place.Name)
		place.Description = strings.TrimSpace(place.Description)
		place.ImageQuery = strings.TrimSpace(place.ImageQuery)
		if place.Name == "" {
			return nil, &ParseError{Reason: fmt.Sprintf("place %d has no name", i), Snippet: summarizePayloadSnippet(text)}
		}
		places = append(places, place)
		if len(places) == MaxNearbyPlaces {
			break
		}
	}
	return places, nil
}

// HealthCheck issues a minimal JSON request to verify the key and model.
func (c *Client) HealthCheck(ctx context.Context) error {
	if !c.Configured() {
		return errors.New("gemini health: api key required")
	}
	payload := generateRequest{
		Contents:         []content{{Parts: []part{{Text: `Respond with {"ok":true}`}}}},
		GenerationConfig: &generationConfig{ResponseMimeType: "application/json"},
	}
	text, _, err := c.generate(ctx, payload, "gemini health")
	if err != nil {
		return err
	}
	var parsed struct {
		OK bool `json:"ok"`
	}
	if err := DecodeModelJSON(text, &parsed); err != nil {
		return fmt.Errorf("gemini health: parse payload: %w", err)
	}
	if !parsed.OK {
		return errors.New("gemini health: unexpected response")
	}
	return nil
}
