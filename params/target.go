package params

// Category groups targets the way the control surface groups knobs.
type Category string

const (
	CategoryVideo     Category = "video"
	CategoryParticles Category = "particles"
	CategoryGeometry  Category = "geometry"
	CategoryPost      Category = "post"
	CategoryCamera    Category = "camera"
	CategoryAudio     Category = "audio"
)

// Target identifies one of the 64 controllable visual parameters.
// The set is closed: every target a CC can drive is enumerated here,
// so there is no string-path parsing anywhere in the dispatch path.
type Target int

const (
	VideoSpeed Target = iota
	VideoOpacity
	VideoSaturation
	VideoHue
	VideoBrightness
	VideoContrast
	VideoBlur
	VideoChromaticAberration
	VideoScale
	VideoRotationSpeed
	VideoKaleidoscope
	ParticleCount
	ParticleSize
	ParticleSpeed
	ParticleSpread
	ParticleLifetime
	ParticleGravity
	ParticleTurbulence
	ParticleTrailLength
	ParticleAudioReactivity
	ParticleColorHue
	ParticleOpacity
	ParticleEmissionRate
	GeoDisplacement
	GeoRotX
	GeoRotY
	GeoRotZ
	GeoMeshScale
	GeoWireframeThickness
	GeoVertexNoise
	GeoMeshOpacity
	GeoNormalStrength
	GeoMetalness
	GeoRoughness
	PostBloom
	PostBloomThreshold
	PostBloomRadius
	PostGlitch
	PostRGBSplit
	PostPixelation
	PostVignette
	PostFilmGrain
	PostColorTemp
	PostColorTint
	PostDistortion
	PostFeedback
	CamFOV
	CamPosX
	CamPosY
	CamPosZ
	CamRotSpeed
	CamShake
	CamBgHue
	CamBgBrightness
	CamFogDensity
	CamFogHue
	AudioBassToSize
	AudioMidToColor
	AudioTrebleToBloom
	AudioKickToFlash
	AudioOverallToScale
	AudioSmoothing
	AudioBeatSensitivity
	AudioGlobalIntensity

	NumTargets int = iota
)

type targetInfo struct {
	path     string
	category Category
}

var targetTable = [NumTargets]targetInfo{
	VideoSpeed:               {"video.speed", CategoryVideo},
	VideoOpacity:             {"video.opacity", CategoryVideo},
	VideoSaturation:          {"video.saturation", CategoryVideo},
	VideoHue:                 {"video.hue", CategoryVideo},
	VideoBrightness:          {"video.brightness", CategoryVideo},
	VideoContrast:            {"video.contrast", CategoryVideo},
	VideoBlur:                {"video.blur", CategoryVideo},
	VideoChromaticAberration: {"video.chromaticAberration", CategoryVideo},
	VideoScale:               {"video.scale", CategoryVideo},
	VideoRotationSpeed:       {"video.rotationSpeed", CategoryVideo},
	VideoKaleidoscope:        {"video.kaleidoscope", CategoryVideo},
	ParticleCount:            {"particles.count", CategoryParticles},
	ParticleSize:             {"particles.size", CategoryParticles},
	ParticleSpeed:            {"particles.speed", CategoryParticles},
	ParticleSpread:           {"particles.spread", CategoryParticles},
	ParticleLifetime:         {"particles.lifetime", CategoryParticles},
	ParticleGravity:          {"particles.gravity", CategoryParticles},
	ParticleTurbulence:       {"particles.turbulence", CategoryParticles},
	ParticleTrailLength:      {"particles.trailLength", CategoryParticles},
	ParticleAudioReactivity:  {"particles.audioReactivity", CategoryParticles},
	ParticleColorHue:         {"particles.colorHue", CategoryParticles},
	ParticleOpacity:          {"particles.opacity", CategoryParticles},
	ParticleEmissionRate:     {"particles.emissionRate", CategoryParticles},
	GeoDisplacement:          {"geometry.displacement", CategoryGeometry},
	GeoRotX:                  {"geometry.rotX", CategoryGeometry},
	GeoRotY:                  {"geometry.rotY", CategoryGeometry},
	GeoRotZ:                  {"geometry.rotZ", CategoryGeometry},
	GeoMeshScale:             {"geometry.meshScale", CategoryGeometry},
	GeoWireframeThickness:    {"geometry.wireframeThickness", CategoryGeometry},
	GeoVertexNoise:           {"geometry.vertexNoise", CategoryGeometry},
	GeoMeshOpacity:           {"geometry.meshOpacity", CategoryGeometry},
	GeoNormalStrength:        {"geometry.normalStrength", CategoryGeometry},
	GeoMetalness:             {"geometry.metalness", CategoryGeometry},
	GeoRoughness:             {"geometry.roughness", CategoryGeometry},
	PostBloom:                {"post.bloom", CategoryPost},
	PostBloomThreshold:       {"post.bloomThreshold", CategoryPost},
	PostBloomRadius:          {"post.bloomRadius", CategoryPost},
	PostGlitch:               {"post.glitch", CategoryPost},
	PostRGBSplit:             {"post.rgbSplit", CategoryPost},
	PostPixelation:           {"post.pixelation", CategoryPost},
	PostVignette:             {"post.vignette", CategoryPost},
	PostFilmGrain:            {"post.filmGrain", CategoryPost},
	PostColorTemp:            {"post.colorTemp", CategoryPost},
	PostColorTint:            {"post.colorTint", CategoryPost},
	PostDistortion:           {"post.distortion", CategoryPost},
	PostFeedback:             {"post.feedback", CategoryPost},
	CamFOV:                   {"camera.fov", CategoryCamera},
	CamPosX:                  {"camera.posX", CategoryCamera},
	CamPosY:                  {"camera.posY", CategoryCamera},
	CamPosZ:                  {"camera.posZ", CategoryCamera},
	CamRotSpeed:              {"camera.rotSpeed", CategoryCamera},
	CamShake:                 {"camera.shake", CategoryCamera},
	CamBgHue:                 {"camera.bgHue", CategoryCamera},
	CamBgBrightness:          {"camera.bgBrightness", CategoryCamera},
	CamFogDensity:            {"camera.fogDensity", CategoryCamera},
	CamFogHue:                {"camera.fogHue", CategoryCamera},
	AudioBassToSize:          {"audio.bassToSize", CategoryAudio},
	AudioMidToColor:          {"audio.midToColor", CategoryAudio},
	AudioTrebleToBloom:       {"audio.trebleToBloom", CategoryAudio},
	AudioKickToFlash:         {"audio.kickToFlash", CategoryAudio},
	AudioOverallToScale:      {"audio.overallToScale", CategoryAudio},
	AudioSmoothing:           {"audio.smoothing", CategoryAudio},
	AudioBeatSensitivity:     {"audio.beatSensitivity", CategoryAudio},
	AudioGlobalIntensity:     {"audio.globalIntensity", CategoryAudio},
}

// Path returns the stable dotted identifier used in persisted documents.
func (t Target) Path() string {
	if t < 0 || int(t) >= NumTargets {
		return ""
	}
	return targetTable[t].path
}

// Category returns the control-surface group the target belongs to.
func (t Target) Category() Category {
	if t < 0 || int(t) >= NumTargets {
		return ""
	}
	return targetTable[t].category
}

func (t Target) String() string { return t.Path() }

// TargetForPath resolves a persisted dotted identifier back to its target.
func TargetForPath(path string) (Target, bool) {
	for t, info := range targetTable {
		if info.path == path {
			return Target(t), true
		}
	}
	return 0, false
}
