package script

// maps roles to synthesizer voice identifiers
type VoiceMap map[Role]string

// DefaultVoices returns the en-US neural voice set. Guy leans younger
// than Christopher, so boy gets Guy and male gets Christopher.
func DefaultVoices() VoiceMap {
	return VoiceMap{
		RoleMale:   "en-US-ChristopherNeural",
		RoleFemale: "en-US-JennyNeural",
		RoleBoy:    "en-US-GuyNeural",
		RoleGirl:   "en-US-AnaNeural",
	}
}

// Voice resolves a role to a voice id. Narration (and any unmapped
// role) alternates between the male and female voice by day-of-month
// parity so batches vary across days; callers pass the day so tests
// can pin it.
func (m VoiceMap) Voice(role Role, day int) string {
	if v, ok := m[role]; ok {
		return v
	}
	if day%2 == 1 {
		return m[RoleMale]
	}
	return m[RoleFemale]
}
