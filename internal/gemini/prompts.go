package gemini

import "fmt"

const imagePrompt = `You are an expert historian specializing in architecture. Analyze this image.
1. Provide a concise, engaging description of its historical and cultural significance. Include architectural style, era, and purpose. Start with a compelling title on the first line.
2. On a new line, after the description, if this is a famous landmark, write "VIDEO_SEARCH:" followed by a concise search query for YouTube to find a cinematic documentary video about this place (e.g., "VIDEO_SEARCH: Taj Mahal cinematic drone footage"). If not famous, omit this line.
Format the main response in clear paragraphs.`

func locationPrompt(lat, lon float64, languageName string) string {
	return fmt.Sprintf(`Based on these coordinates (Lat: %v, Lon: %v), act as a local historian.
- First, create a clear title for the location.
- Then, provide an engaging description of the immediate area's history and cultural significance.
- IMPORTANT: The entire response (title and description) must be written exclusively in the %s language. Do not include any English text in the main body.
- Finally, on a new line at the very end, write "IMAGE_QUERY:" followed by a simple, beautiful Unsplash.com search query for this location in English (e.g., "IMAGE_QUERY: Old Delhi street").`,
		lat, lon, languageName)
}

func nearbyPrompt(lat, lon float64) string {
	return fmt.Sprintf("Based on these coordinates (Lat: %v, Lon: %v), list up to %d nearby cultural or heritage points of interest. For each place, provide a name, a brief description, and a simple Unsplash.com search query for a beautiful image of the place.",
		lat, lon, MaxNearbyPlaces)
}

// nearbySchema constrains the nearby-places response.
var nearbySchema = map[string]any{
	"type": "OBJECT",
	"properties": map[string]any{
		"places": map[string]any{
			"type": "ARRAY",
			"items": map[string]any{
				"type": "OBJECT",
				"properties": map[string]any{
					"name":        map[string]any{"type": "STRING", "description": "The name of the heritage site."},
					"description": map[string]any{"type": "STRING", "description": "A brief, one-sentence description."},
					"imageUrl":    map[string]any{"type": "STRING", "description": "A simple search query for Unsplash.com (e.g., 'Jaipur Hawa Mahal')."},
				},
				"required": []string{"name", "description", "imageUrl"},
			},
		},
	},
	"required": []string{"places"},
}
