package midi

import "go-vizmix/params"

// CC numbers outside this inclusive range never reach the mapping layer.
const (
	MinCC = 35
	MaxCC = 98

	// NumMappings is the size of the fixed control bank.
	NumMappings = MaxCC - MinCC + 1
)

// CCMapping is the immutable descriptor for one controller knob: its CC
// number, display name, scaled value range, and the visual parameter it
// drives. Exactly 64 of these exist, one per CC in [MinCC, MaxCC], created
// once at startup and never mutated.
type CCMapping struct {
	CC       int
	Name     string
	Min      float64
	Max      float64
	Default  float64
	Target   params.Target
	Category params.Category
}

// InRange reports whether cc is inside the control bank.
func InRange(cc int) bool {
	return cc >= MinCC && cc <= MaxCC
}

// Scale maps a 7-bit controller value into the mapping's range.
// Scale(0) == Min and Scale(127) == Max exactly.
func (m *CCMapping) Scale(raw int) float64 {
	return m.Min + (float64(raw)/127.0)*(m.Max-m.Min)
}

func entry(cc int, name string, min, max, def float64, t params.Target) CCMapping {
	return CCMapping{
		CC: cc, Name: name,
		Min: min, Max: max, Default: def,
		Target: t, Category: t.Category(),
	}
}

// defaultMappings builds the reference control bank. The tuples match the
// published table exactly; saved presets depend on them never changing.
func defaultMappings() map[int]CCMapping {
	list := []CCMapping{
		entry(35, "Video Speed", 0.25, 4.0, 1.0, params.VideoSpeed),
		entry(36, "Opacity", 0, 1, 1.0, params.VideoOpacity),
		entry(37, "Saturation", -1, 2, 1.0, params.VideoSaturation),
		entry(38, "Hue", 0, 360, 0, params.VideoHue),
		entry(39, "Brightness", -1, 1, 0, params.VideoBrightness),
		entry(40, "Contrast", 0, 2, 1.0, params.VideoContrast),
		entry(41, "Blur", 0, 20, 0, params.VideoBlur),
		entry(42, "ChromaticAberration", 0, 0.05, 0, params.VideoChromaticAberration),
		entry(43, "Scale", 0.5, 3, 1.0, params.VideoScale),
		entry(44, "RotationSpeed", -2, 2, 0, params.VideoRotationSpeed),
		entry(45, "Kaleidoscope", 1, 12, 1, params.VideoKaleidoscope),
		entry(46, "ParticleCount", 0, 5000, 1000, params.ParticleCount),
		entry(47, "ParticleSize", 0.1, 20, 2.0, params.ParticleSize),
		entry(48, "ParticleSpeed", 0, 10, 1.0, params.ParticleSpeed),
		entry(49, "ParticleSpread", 0, 100, 20, params.ParticleSpread),
		entry(50, "ParticleLifetime", 0.5, 10, 3.0, params.ParticleLifetime),
		entry(51, "Gravity", -5, 5, 0, params.ParticleGravity),
		entry(52, "Turbulence", 0, 5, 0, params.ParticleTurbulence),
		entry(53, "TrailLength", 0, 50, 0, params.ParticleTrailLength),
		entry(54, "AudioReactivity", 0, 2, 0.5, params.ParticleAudioReactivity),
		entry(55, "ColorHue", 0, 360, 200, params.ParticleColorHue),
		entry(56, "ParticleOpacity", 0, 1, 0.8, params.ParticleOpacity),
		entry(57, "EmissionRate", 0, 200, 50, params.ParticleEmissionRate),
		entry(58, "Displacement", 0, 5, 0, params.GeoDisplacement),
		entry(59, "RotX", -3.14, 3.14, 0, params.GeoRotX),
		entry(60, "RotY", -3.14, 3.14, 0, params.GeoRotY),
		entry(61, "RotZ", -3.14, 3.14, 0, params.GeoRotZ),
		entry(62, "MeshScale", 0.1, 5, 1.0, params.GeoMeshScale),
		entry(63, "WireframeThickness", 0, 5, 0, params.GeoWireframeThickness),
		entry(64, "VertexNoise", 0, 2, 0, params.GeoVertexNoise),
		entry(65, "MeshOpacity", 0, 1, 1.0, params.GeoMeshOpacity),
		entry(66, "NormalStrength", 0, 2, 1.0, params.GeoNormalStrength),
		entry(67, "Metalness", 0, 1, 0.5, params.GeoMetalness),
		entry(68, "Roughness", 0, 1, 0.5, params.GeoRoughness),
		entry(69, "Bloom", 0, 3, 0.5, params.PostBloom),
		entry(70, "BloomThreshold", 0, 1, 0.5, params.PostBloomThreshold),
		entry(71, "BloomRadius", 0, 1, 0.5, params.PostBloomRadius),
		entry(72, "Glitch", 0, 1, 0, params.PostGlitch),
		entry(73, "RGBSplit", 0, 0.1, 0, params.PostRGBSplit),
		entry(74, "Pixelation", 1, 100, 1, params.PostPixelation),
		entry(75, "Vignette", 0, 1, 0, params.PostVignette),
		entry(76, "FilmGrain", 0, 1, 0, params.PostFilmGrain),
		entry(77, "ColorTemp", -1, 1, 0, params.PostColorTemp),
		entry(78, "ColorTint", -1, 1, 0, params.PostColorTint),
		entry(79, "Distortion", 0, 1, 0, params.PostDistortion),
		entry(80, "Feedback", 0, 0.95, 0, params.PostFeedback),
		entry(81, "FOV", 20, 120, 75, params.CamFOV),
		entry(82, "PosX", -50, 50, 0, params.CamPosX),
		entry(83, "PosY", -50, 50, 0, params.CamPosY),
		entry(84, "PosZ", -50, 50, 30, params.CamPosZ),
		entry(85, "CamRotSpeed", 0, 2, 0, params.CamRotSpeed),
		entry(86, "Shake", 0, 5, 0, params.CamShake),
		entry(87, "BgHue", 0, 360, 220, params.CamBgHue),
		entry(88, "BgBrightness", 0, 1, 0.1, params.CamBgBrightness),
		entry(89, "FogDensity", 0, 0.1, 0, params.CamFogDensity),
		entry(90, "FogHue", 0, 360, 200, params.CamFogHue),
		entry(91, "BassToSize", 0, 2, 0, params.AudioBassToSize),
		entry(92, "MidToColor", 0, 2, 0, params.AudioMidToColor),
		entry(93, "TrebleToBloom", 0, 2, 0, params.AudioTrebleToBloom),
		entry(94, "KickToFlash", 0, 2, 0, params.AudioKickToFlash),
		entry(95, "OverallToScale", 0, 2, 0, params.AudioOverallToScale),
		entry(96, "Smoothing", 0, 0.99, 0.8, params.AudioSmoothing),
		entry(97, "BeatSensitivity", 0.1, 2, 1.0, params.AudioBeatSensitivity),
		entry(98, "GlobalIntensity", 0, 3, 1.0, params.AudioGlobalIntensity),
	}

	m := make(map[int]CCMapping, NumMappings)
	for _, e := range list {
		m[e.CC] = e
	}
	return m
}
