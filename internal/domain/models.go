package domain

// Niche determines the vision prompt and the keyword vocabulary used for
// timing allocation.
type Niche string

const (
	NicheRealEstate Niche = "real-estate"
	NicheEcommerce  Niche = "e-commerce"
	NicheFitness    Niche = "fitness"
	NicheCoaching   Niche = "coaching"
)

func (n Niche) Valid() bool {
	switch n {
	case NicheRealEstate, NicheEcommerce, NicheFitness, NicheCoaching:
		return true
	}
	return false
}

// AspectRatio selects the output resolution of the final video.
type AspectRatio string

const (
	AspectLandscape AspectRatio = "16:9"
	AspectPortrait  AspectRatio = "9:16"
	AspectSquare    AspectRatio = "1:1"
)

func (a AspectRatio) Valid() bool {
	switch a {
	case AspectLandscape, AspectPortrait, AspectSquare:
		return true
	}
	return false
}

// Resolution returns the output width and height for the aspect ratio.
func (a AspectRatio) Resolution() (width, height int) {
	switch a {
	case AspectPortrait:
		return 1080, 1920
	case AspectSquare:
		return 1080, 1080
	default:
		return 1920, 1080
	}
}

var voiceIDs = map[string]struct{}{
	"alloy":   {},
	"echo":    {},
	"fable":   {},
	"onyx":    {},
	"nova":    {},
	"shimmer": {},
}

func ValidVoice(id string) bool {
	_, ok := voiceIDs[id]
	return ok
}

var musicTracks = map[string]struct{}{
	"upbeat":    {},
	"corporate": {},
	"calm":      {},
	"inspiring": {},
	"none":      {},
}

func ValidMusic(track string) bool {
	_, ok := musicTracks[track]
	return ok
}

const (
	MusicGainMin     = 5
	MusicGainMax     = 50
	MusicGainDefault = 15
)

// RenderSettings is the user-chosen configuration for one render.
type RenderSettings struct {
	Voice     string      `json:"voice"`
	Music     string      `json:"music"`
	MusicGain int         `json:"musicGain"`
	Aspect    AspectRatio `json:"aspect"`
}

func DefaultRenderSettings() RenderSettings {
	return RenderSettings{
		Voice:     "alloy",
		Music:     "none",
		MusicGain: MusicGainDefault,
		Aspect:    AspectLandscape,
	}
}

// UploadedAsset is one uploaded image with its user-assigned category label.
// It is owned by a single project and consumed by one pipeline run.
type UploadedAsset struct {
	ID        string `json:"id"`
	FileName  string `json:"fileName"`
	MimeType  string `json:"mimeType"`
	SizeBytes int64  `json:"sizeBytes"`
	Category  string `json:"category"`
	Path      string `json:"-"`
}

// ImageAnalysis is the vision capability's output for one asset.
type ImageAnalysis struct {
	Category    string   `json:"category"`
	Description string   `json:"description"`
	FeatureTags []string `json:"featureTags,omitempty"`
}

// RenderResult describes the finalized artifact of a pipeline run.
type RenderResult struct {
	VideoPath       string  `json:"-"`
	VideoID         string  `json:"videoId"`
	SizeBytes       int64   `json:"sizeBytes"`
	DurationSeconds float64 `json:"durationSeconds"`
}

type Project struct {
	ID       string                   `json:"id"`
	Niche    Niche                    `json:"niche"`
	Status   string                   `json:"status"`
	Assets   []UploadedAsset          `json:"assets"`
	Analyses map[string]ImageAnalysis `json:"analyses,omitempty"`
	Script   string                   `json:"script,omitempty"`
	Settings RenderSettings           `json:"settings"`
	Render   *RenderResult            `json:"render,omitempty"`
	Error    string                   `json:"error,omitempty"`

	CreatedAt int64 `json:"createdAt"`
	UpdatedAt int64 `json:"updatedAt"`
}

const (
	StatusDraft     = "draft"
	StatusAnalyzed  = "analyzed"
	StatusScripted  = "scripted"
	StatusRendering = "rendering"
	StatusRendered  = "rendered"
	StatusFailed    = "failed"
)

// Vocabulary maps a category label to the keyword phrases that may mark its
// mention inside a script. Injected into the timing allocator so new niches
// can be added without touching it.
type Vocabulary map[string][]string

var nicheVocabularies = map[Niche]Vocabulary{
	NicheRealEstate: {
		"kitchen":     {"kitchen", "cook", "appliances", "granite", "countertop", "dining"},
		"living room": {"living room", "living space", "family room", "fireplace", "lounge"},
		"bedroom":     {"bedroom", "master suite", "retreat", "sleep", "rest"},
		"bathroom":    {"bathroom", "bath", "shower", "vanity", "spa"},
		"exterior":    {"exterior", "curb appeal", "facade", "front", "entrance", "driveway"},
		"backyard":    {"backyard", "yard", "garden", "patio", "deck", "outdoor", "pool"},
		"garage":      {"garage", "parking", "storage"},
	},
	NicheEcommerce: {
		"product":   {"product", "design", "quality", "crafted", "made"},
		"detail":    {"detail", "close-up", "texture", "finish", "material"},
		"packaging": {"packaging", "unbox", "box", "gift"},
		"lifestyle": {"lifestyle", "everyday", "use", "wear", "enjoy"},
	},
	NicheFitness: {
		"gym":       {"gym", "facility", "space", "studio"},
		"equipment": {"equipment", "weights", "machines", "gear"},
		"workout":   {"workout", "training", "exercise", "session", "class"},
		"results":   {"results", "transformation", "progress", "stronger", "goals"},
	},
	NicheCoaching: {
		"portrait":    {"coach", "mentor", "expert", "guide"},
		"session":     {"session", "one-on-one", "call", "meeting", "workshop"},
		"testimonial": {"testimonial", "clients", "success", "stories", "reviews"},
		"event":       {"event", "seminar", "stage", "audience", "community"},
	},
}

// VocabularyFor returns the keyword table for a niche. Unknown niches get the
// real-estate table, the broadest one.
func VocabularyFor(n Niche) Vocabulary {
	if v, ok := nicheVocabularies[n]; ok {
		return v
	}
	return nicheVocabularies[NicheRealEstate]
}

var nicheVisionContext = map[Niche]string{
	NicheRealEstate: "a room or area of a property being listed for sale",
	NicheEcommerce:  "a product photo for an online store",
	NicheFitness:    "a fitness facility, class or training moment",
	NicheCoaching:   "a coaching or consulting business moment",
}

// VisionContextFor returns the prompt context handed to the vision capability.
func VisionContextFor(n Niche) string {
	if c, ok := nicheVisionContext[n]; ok {
		return c
	}
	return nicheVisionContext[NicheRealEstate]
}
