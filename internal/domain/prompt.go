package domain

import "encoding/base64"

// Prompts sent with every frame, regardless of provider.
const (
	SystemPrompt = "Consider yourself as an assistant for a blind man and you are here to help him see the world in front of him so describe the image in a single sentence make it crisp concise and accurate. Make sure the answer is right and make sure not to exceed it over a sentence. Very very important instruction make it short and less than a sentence and less than one Make it crisp and importantly - concise"
	UserPrompt   = "Describe the image in one short sentence."
)

// Generation defaults shared by every vision provider.
const (
	DefaultMaxTokens   = 100
	DefaultTemperature = 0.7
)

// ImageMIME is the encoding every camera adapter produces.
const ImageMIME = "image/jpeg"

// ImageDataURL embeds a JPEG frame as a data URL image part.
func ImageDataURL(frame []byte) string {
	return "data:" + ImageMIME + ";base64," + base64.StdEncoding.EncodeToString(frame)
}
