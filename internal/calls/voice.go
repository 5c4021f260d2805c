package calls

import (
	"fmt"
	"strings"
)

// VoiceProfile is the closed set of agent voices an operator may choose.
type VoiceProfile string

const (
	VoiceIndianMale     VoiceProfile = "indian_male"
	VoiceAmericanMale   VoiceProfile = "american_male"
	VoiceAmericanFemale VoiceProfile = "american_female"
)

var voiceIDs = map[VoiceProfile]string{
	VoiceIndianMale:     "4ca175b7-3d84-45d2-83d3-c97f0839815c",
	VoiceAmericanMale:   "2c01ebe7-45d4-4b58-9686-617fa283dd8e",
	VoiceAmericanFemale: "13843c96-ab9e-4938-baf3-ad53fcee541d",
}

// Voices lists the supported profiles in display order.
func Voices() []VoiceProfile {
	return []VoiceProfile{VoiceIndianMale, VoiceAmericanMale, VoiceAmericanFemale}
}

// ParseVoiceProfile accepts the profile key or its display label ("Indian Male").
func ParseVoiceProfile(s string) (VoiceProfile, error) {
	key := strings.ToLower(strings.TrimSpace(s))
	key = strings.NewReplacer(" ", "_", "-", "_").Replace(key)
	v := VoiceProfile(key)
	if _, ok := voiceIDs[v]; !ok {
		return "", fmt.Errorf("calls: unknown voice profile %q", s)
	}
	return v, nil
}

// ProviderVoiceID returns the provider's voice id, or "" for an unknown profile.
func (v VoiceProfile) ProviderVoiceID() string {
	return voiceIDs[v]
}

func (v VoiceProfile) Valid() bool {
	_, ok := voiceIDs[v]
	return ok
}
