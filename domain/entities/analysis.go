package entities

import "errors"

// StructuredAnalysis is the fixed-shape document produced by the language
// model for one dream. It is created exactly once per request and never
// mutated afterwards. The jsonschema tags drive the output-shape
// specification embedded in the analysis prompt.
type StructuredAnalysis struct {
	Overview             Overview             `json:"overview" bson:"overview" jsonschema:"required"`
	ManifestContent      ManifestContent      `json:"manifestContent" bson:"manifest_content" jsonschema:"required"`
	CDTAnalysis          CDTAnalysis          `json:"cdtAnalysis" bson:"cdt_analysis" jsonschema:"required"`
	ArchetypalResonances ArchetypalResonances `json:"archetypalResonances" bson:"archetypal_resonances" jsonschema:"required"`
	ReflectivePrompts    []ReflectivePrompt   `json:"reflectivePrompts" bson:"reflective_prompts" jsonschema:"required"`
}

// Overview summarizes the dream and carries the headline classification.
type Overview struct {
	Title         string  `json:"title" bson:"title" jsonschema:"required"`
	EmotionalTone string  `json:"emotionalTone" bson:"emotional_tone" jsonschema:"required"`
	DreamType     string  `json:"dreamType" bson:"dream_type" jsonschema:"required,enum=symbolic,enum=processing,enum=lucid,enum=nightmare,enum=recurring,enum=transcendent"`
	Confidence    float64 `json:"confidence" bson:"confidence" jsonschema:"required"`
	Summary       string  `json:"summary" bson:"summary" jsonschema:"required"`
}

// Scale is one Schredl-style rating: a numeric value, a short label, and the
// model's reading of what the score means for this dream.
type Scale struct {
	Value          float64 `json:"value" bson:"value" jsonschema:"required"`
	Label          string  `json:"label" bson:"label" jsonschema:"required"`
	Interpretation string  `json:"interpretation" bson:"interpretation" jsonschema:"required"`
}

// ManifestContent inventories the surface content of the dream plus the nine
// named rating scales.
type ManifestContent struct {
	Characters []string `json:"characters" bson:"characters" jsonschema:"required"`
	Settings   []string `json:"settings" bson:"settings" jsonschema:"required"`
	Actions    []string `json:"actions" bson:"actions" jsonschema:"required"`
	Emotions   []string `json:"emotions" bson:"emotions" jsonschema:"required"`

	EmotionalIntensity Scale `json:"emotionalIntensity" bson:"emotional_intensity" jsonschema:"required"`
	EmotionalValence   Scale `json:"emotionalValence" bson:"emotional_valence" jsonschema:"required"`
	Realism            Scale `json:"realism" bson:"realism" jsonschema:"required"`
	Bizarreness        Scale `json:"bizarreness" bson:"bizarreness" jsonschema:"required"`
	Vividness          Scale `json:"vividness" bson:"vividness" jsonschema:"required"`
	Clarity            Scale `json:"clarity" bson:"clarity" jsonschema:"required"`
	Lucidity           Scale `json:"lucidity" bson:"lucidity" jsonschema:"required"`
	Control            Scale `json:"control" bson:"control" jsonschema:"required"`
	ThreatLevel        Scale `json:"threatLevel" bson:"threat_level" jsonschema:"required"`
}

// VaultActivation describes whether suppressed material surfaced in the dream.
type VaultActivation struct {
	Detected    bool     `json:"detected" bson:"detected" jsonschema:"required"`
	Intensity   float64  `json:"intensity" bson:"intensity" jsonschema:"required"`
	Indicators  []string `json:"indicators" bson:"indicators" jsonschema:"required"`
	Description string   `json:"description" bson:"description" jsonschema:"required"`
}

// DriftTheme is one cognitive-drift theme with the model's confidence in it.
type DriftTheme struct {
	Theme      string  `json:"theme" bson:"theme" jsonschema:"required"`
	Confidence float64 `json:"confidence" bson:"confidence" jsonschema:"required"`
}

// CDTAnalysis holds the Critical Dream Theory reading of the dream.
type CDTAnalysis struct {
	VaultActivation         VaultActivation `json:"vaultActivation" bson:"vault_activation" jsonschema:"required"`
	CognitiveDriftThemes    []DriftTheme    `json:"cognitiveDriftThemes" bson:"cognitive_drift_themes" jsonschema:"required"`
	ConvergenceIndicators   []string        `json:"convergenceIndicators" bson:"convergence_indicators" jsonschema:"required"`
	ClassificationRationale string          `json:"classificationRationale" bson:"classification_rationale" jsonschema:"required"`
}

// ArchetypeResonance marks whether one archetype appears in the dream and, if
// so, through which elements.
type ArchetypeResonance struct {
	Present    bool     `json:"present" bson:"present" jsonschema:"required"`
	Elements   []string `json:"elements" bson:"elements" jsonschema:"required"`
	Reflection *string  `json:"reflection" bson:"reflection" jsonschema:"required"`
}

// ArchetypalResonances holds the fixed archetype slots plus any archetypal
// scenarios the model recognized.
type ArchetypalResonances struct {
	Shadow      ArchetypeResonance `json:"shadow" bson:"shadow" jsonschema:"required"`
	AnimaAnimus ArchetypeResonance `json:"animaAnimus" bson:"anima_animus" jsonschema:"required"`
	WiseElder   ArchetypeResonance `json:"wiseElder" bson:"wise_elder" jsonschema:"required"`
	InnerChild  ArchetypeResonance `json:"innerChild" bson:"inner_child" jsonschema:"required"`
	Trickster   ArchetypeResonance `json:"trickster" bson:"trickster" jsonschema:"required"`
	Scenarios   []string           `json:"scenarios" bson:"scenarios" jsonschema:"required"`
}

// ReflectivePrompt is one journaling question derived from the analysis.
type ReflectivePrompt struct {
	Category        string `json:"category" bson:"category" jsonschema:"required"`
	Prompt          string `json:"prompt" bson:"prompt" jsonschema:"required"`
	DreamConnection string `json:"dreamConnection" bson:"dream_connection" jsonschema:"required"`
}

// Validate checks that the required groups of the analysis contract are
// populated. A response that parses as JSON but misses these fields is
// treated the same as a parse failure.
func (a *StructuredAnalysis) Validate() error {
	if a.Overview.Title == "" {
		return errors.New("overview.title is required")
	}
	if a.Overview.Summary == "" {
		return errors.New("overview.summary is required")
	}
	if a.Overview.DreamType == "" {
		return errors.New("overview.dreamType is required")
	}
	if a.Overview.EmotionalTone == "" {
		return errors.New("overview.emotionalTone is required")
	}
	if a.Overview.Confidence < 0 || a.Overview.Confidence > 1 {
		return errors.New("overview.confidence must be within [0,1]")
	}
	if a.CDTAnalysis.ClassificationRationale == "" {
		return errors.New("cdtAnalysis.classificationRationale is required")
	}
	if len(a.ReflectivePrompts) == 0 {
		return errors.New("reflectivePrompts must not be empty")
	}
	return nil
}
