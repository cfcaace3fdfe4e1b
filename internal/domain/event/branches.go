package event

// Branches names the detector columns a Batch is built from.
type Branches struct {
	JetPx     string `koanf:"jet_px"`
	JetPy     string `koanf:"jet_py"`
	JetPz     string `koanf:"jet_pz"`
	JetEnergy string `koanf:"jet_energy"`
	JetMass   string `koanf:"jet_mass"`

	TrackOmega     string `koanf:"track_omega"`
	TrackTanLambda string `koanf:"track_tan_lambda"`
	TrackD0        string `koanf:"track_d0"`
	TrackD0Sigma   string `koanf:"track_d0_sigma"`
	TrackZ0        string `koanf:"track_z0"`
	TrackZ0Sigma   string `koanf:"track_z0_sigma"`
	TrackPhi       string `koanf:"track_phi"`

	// TruthPrefixes are the sibling daughter prefixes; each contributes one
	// truth particle per event.
	TruthPrefixes []string `koanf:"truth_prefixes"`
	TruthPDGID    string   `koanf:"truth_pdgid"`
	TruthEnergy   string   `koanf:"truth_energy"`
	TruthPx       string   `koanf:"truth_px"`
	TruthPy       string   `koanf:"truth_py"`
	TruthPz       string   `koanf:"truth_pz"`
}

// DefaultBranches returns the BUVertices / showerData branch names.
func DefaultBranches() Branches {
	return Branches{
		JetPx:     "jmox",
		JetPy:     "jmoy",
		JetPz:     "jmoz",
		JetEnergy: "jene",
		JetMass:   "jmas",

		TrackOmega:     "daughters_trackOmega",
		TrackTanLambda: "daughters_trackTanLambda",
		TrackD0:        "daughters_trackD0",
		TrackD0Sigma:   "daughters_trackSigmaD0",
		TrackZ0:        "daughters_trackZ0",
		TrackZ0Sigma:   "daughters_trackSigmaZ0",
		TrackPhi:       "daughters_trackPhi",

		TruthPrefixes: []string{"d1_", "d2_"},
		TruthPDGID:    "mcPDGID",
		TruthEnergy:   "mcE",
		TruthPx:       "mcPx",
		TruthPy:       "mcPy",
		TruthPz:       "mcPz",
	}
}

// JetColumns lists the jagged per-jet branches.
func (b Branches) JetColumns() []string {
	return []string{b.JetPx, b.JetPy, b.JetPz, b.JetEnergy, b.JetMass}
}

// TrackColumns lists the doubly-jagged per-track branches.
func (b Branches) TrackColumns() []string {
	return []string{b.TrackOmega, b.TrackTanLambda, b.TrackD0, b.TrackD0Sigma, b.TrackZ0, b.TrackZ0Sigma, b.TrackPhi}
}

// TruthColumns expands a truth suffix over every daughter prefix, in prefix
// order.
func (b Branches) TruthColumns(suffix string) []string {
	out := make([]string, len(b.TruthPrefixes))
	for i, p := range b.TruthPrefixes {
		out[i] = p + suffix
	}
	return out
}

// AllTruthColumns lists every scalar truth branch.
func (b Branches) AllTruthColumns() []string {
	var out []string
	for _, s := range []string{b.TruthPDGID, b.TruthEnergy, b.TruthPx, b.TruthPy, b.TruthPz} {
		out = append(out, b.TruthColumns(s)...)
	}
	return out
}
