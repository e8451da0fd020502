package eeg

// Electrode is one scalp position of the international 10-20 system. X and Y
// are percentages of head width and height.
type Electrode struct {
	ID          string  `json:"id"`
	X           float64 `json:"x"`
	Y           float64 `json:"y"`
	Region      string  `json:"region"`
	Description string  `json:"description"`
}

// Electrodes is the standard 19-channel montage.
var Electrodes = []Electrode{
	{"Fp1", 35, 15, "Pre-Frontal (Left)", "Attention, judgment. Prone to blink artifacts."},
	{"Fp2", 65, 15, "Pre-Frontal (Right)", "Attention, judgment. Prone to blink artifacts."},
	{"F7", 15, 30, "Frontal (Temporal Left)", "Language processing (near Broca's area)."},
	{"F3", 35, 30, "Frontal (Left)", "Motor planning, emotional regulation."},
	{"Fz", 50, 30, "Frontal (Midline)", "Executive function, working memory."},
	{"F4", 65, 30, "Frontal (Right)", "Motor planning, emotional regulation."},
	{"F8", 85, 30, "Frontal (Temporal Right)", "Spatial memory, emotion."},

	{"T3", 10, 50, "Temporal (Left)", "Auditory processing, language comprehension."},
	{"C3", 30, 50, "Central (Left)", "Sensorimotor integration (Right hand)."},
	{"Cz", 50, 50, "Central (Vertex)", "Sensorimotor, reference point."},
	{"C4", 70, 50, "Central (Right)", "Sensorimotor integration (Left hand)."},
	{"T4", 90, 50, "Temporal (Right)", "Auditory processing, non-verbal memory."},

	{"T5", 15, 70, "Posterior Temporal (Left)", "Visual-verbal processing."},
	{"P3", 35, 70, "Parietal (Left)", "Spatial orientation, calculation."},
	{"Pz", 50, 70, "Parietal (Midline)", "Integration of sensory information."},
	{"P4", 65, 70, "Parietal (Right)", "Spatial processing."},
	{"T6", 85, 70, "Posterior Temporal (Right)", "Visual-spatial processing."},

	{"O1", 35, 90, "Occipital (Left)", "Primary visual cortex. Source of Alpha rhythm."},
	{"O2", 65, 90, "Occipital (Right)", "Primary visual cortex. Source of Alpha rhythm."},
}

// ElectrodeByID looks up an electrode.
func ElectrodeByID(id string) (Electrode, bool) {
	for _, e := range Electrodes {
		if e.ID == id {
			return e, true
		}
	}
	return Electrode{}, false
}

// ElectrodeIDs returns the IDs of the full montage in order.
func ElectrodeIDs() []string {
	ids := make([]string, len(Electrodes))
	for i, e := range Electrodes {
		ids[i] = e.ID
	}
	return ids
}

type channelSet map[string]struct{}

func newChannelSet(ids ...string) channelSet {
	s := make(channelSet, len(ids))
	for _, id := range ids {
		s[id] = struct{}{}
	}
	return s
}

func (s channelSet) has(id string) bool {
	_, ok := s[id]
	return ok
}

var (
	posteriorChannels = newChannelSet("O1", "O2", "P3", "P4", "Pz", "T5", "T6")
	frontalChannels   = newChannelSet("Fp1", "Fp2", "F7", "F8", "F3", "F4", "Fz")
	blinkChannels     = newChannelSet("Fp1", "Fp2", "F7", "F8", "F3", "F4")
	farBlinkChannels  = newChannelSet("F3", "F4", "F7", "F8")
)
