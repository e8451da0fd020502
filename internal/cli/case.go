package cli

import (
	"encoding/json"
	"fmt"
	"math/rand"
	"strings"

	"github.com/spf13/cobra"

	"github.com/synheart/physiosim/internal/ctg"
	"github.com/synheart/physiosim/internal/defib"
	"github.com/synheart/physiosim/internal/eeg"
	"github.com/synheart/physiosim/internal/ekg"
	"github.com/synheart/physiosim/internal/manometry"
	"github.com/synheart/physiosim/internal/scenario"
	"github.com/synheart/physiosim/internal/spirometry"
)

var (
	caseSeed     int64
	caseType     string
	caseSeverity string
	caseJSON     bool
)

var caseCmd = &cobra.Command{
	Use:   "case <modality>",
	Short: "Generate a training case",
	Long: `Generates one exam or quiz case for a modality: a cardiac arrest for defib,
a 12-lead case for ekg, a brain state with its clinical context for eeg, a
labour trace with its FIGO diagnosis for ctg, a motility study for manometry
and a spirometry case.

--type narrows the draw: EKG category, EEG brain state, manometry scenario
type or spirometry diagnosis.

Examples:
  physiosim case defib
  physiosim case ekg --type ischemic --seed 3
  physiosim case spirometry --type obstructive --severity severe --json`,
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{"defib", "ekg", "eeg", "ctg", "manometry", "spirometry"},
	RunE:      runCase,
}

func init() {
	caseCmd.Flags().Int64Var(&caseSeed, "seed", defaultSeed(), "Random seed")
	caseCmd.Flags().StringVar(&caseType, "type", "", "Case type within the modality")
	caseCmd.Flags().StringVar(&caseSeverity, "severity", "", "Spirometry severity: mild|moderate|severe")
	caseCmd.Flags().BoolVar(&caseJSON, "json", false, "Print the case as JSON")
}

func runCase(cmd *cobra.Command, args []string) error {
	modality, err := scenario.ParseModality(args[0])
	if err != nil {
		return err
	}
	rng := rand.New(rand.NewSource(caseSeed))
	ui := newUI(cmd)

	var c any
	switch modality {
	case scenario.ModalityDefib:
		arrest := defib.GenerateArrestCase(rng)
		c = arrest
		if !caseJSON {
			ui.Title(arrest.Title)
			ui.Field("Patient", fmt.Sprintf("%d %s", arrest.Age, arrest.Sex))
			ui.Field("History", arrest.Description)
			ui.Field("Prompt", arrest.Prompt)
			ui.Field("Rhythm", arrest.Rhythm)
			ui.Field("Shockable", arrest.Shockable)
		}

	case scenario.ModalityEKG:
		var category ekg.Category
		if caseType != "" {
			if category, err = ekg.ParseCategory(caseType); err != nil {
				return err
			}
		}
		ekgCase, err := ekg.GenerateRandomCase(category, rng)
		if err != nil {
			return err
		}
		c = ekgCase
		if !caseJSON {
			ui.Title(ekgCase.Name)
			ui.Field("Category", ekgCase.Category)
			ui.Field("Heart rate", fmt.Sprintf("%d bpm", ekgCase.HeartRate))
			ui.Field("Description", ekgCase.Description)
			ui.Field("Findings", strings.Join(ekgCase.KeyFindings, "; "))
		}

	case scenario.ModalityEEG:
		state := eeg.States[rng.Intn(len(eeg.States))]
		if caseType != "" {
			if state, err = eeg.ParseBrainState(caseType); err != nil {
				return err
			}
		}
		clinical, _ := eeg.ContextFor(state)
		c = struct {
			State   eeg.BrainState      `json:"state"`
			Context eeg.ClinicalContext `json:"context"`
		}{state, clinical}
		if !caseJSON {
			ui.Title(clinical.Diagnosis)
			ui.Field("State", state)
			ui.Field("Category", clinical.Category)
			ui.Field("Explanation", clinical.Explanation)
			ui.Field("Clues", strings.Join(clinical.Clues, "; "))
		}

	case scenario.ModalityCTG:
		quiz := ctg.RandomScenario(rng)
		c = quiz
		if !caseJSON {
			ui.Title(quiz.Name)
			ui.Field("History", quiz.Description)
			ui.Field("Baseline", fmt.Sprintf("%.0f bpm", quiz.Params.Baseline))
			ui.Field("Variability", quiz.Answer.VariabilityState)
			ui.Field("Decelerations", quiz.Answer.DecelerationState)
			ui.Field("FIGO", quiz.Answer.Classification)
			ui.Field("Classifier", ctg.Classify(quiz.Params).Classification)
			if quiz.Management != "" {
				ui.Field("Management", quiz.Management)
			}
		}

	case scenario.ModalityManometry:
		sc := manometry.Scenarios[rng.Intn(len(manometry.Scenarios))]
		if caseType != "" {
			if sc, err = manometry.ParseScenario(caseType); err != nil {
				return err
			}
		}
		profile := manometry.ProfileFor(sc)
		m := manometry.MetricsFor(sc, manometry.VariabilityFor(rng.Int63()))
		c = struct {
			Type    manometry.ScenarioType `json:"type"`
			Label   string                 `json:"label"`
			Metrics manometry.Metrics      `json:"metrics"`
		}{sc, profile.Label, m}
		if !caseJSON {
			ui.Title(profile.Label)
			ui.Field("Type", sc)
			ui.Field("Findings", profile.Description)
			ui.Field("DCI", m.DCIString())
			ui.Field("Latency", m.LatencyString())
			ui.Field("IRP", fmt.Sprintf("%d mmHg", m.IRP))
		}

	case scenario.ModalitySpirometry:
		d := spirometry.Diagnoses[rng.Intn(len(spirometry.Diagnoses))]
		if caseType != "" {
			if d, err = spirometry.ParseDiagnosis(caseType); err != nil {
				return err
			}
		}
		s := spirometry.SeverityModerate
		if d == spirometry.Normal {
			s = spirometry.SeverityNormal
		}
		if caseSeverity != "" {
			if s, err = spirometry.ParseSeverity(caseSeverity); err != nil {
				return err
			}
		}
		spiro, err := spirometry.GenerateCaseWithSeverity(d, s, rng)
		if err != nil {
			return err
		}
		c = spiro
		if !caseJSON {
			ui.Title(spiro.Description)
			ui.Field("Patient", fmt.Sprintf("%+v", spiro.Demographics))
			ui.Field("FVC", fmt.Sprintf("%.2f L (%d%% pred)", spiro.Actual.FVC, spirometry.PercentPredicted(spiro.Actual.FVC, spiro.Predicted.FVCPred)))
			ui.Field("FEV1", fmt.Sprintf("%.2f L (%d%% pred)", spiro.Actual.FEV1, spirometry.PercentPredicted(spiro.Actual.FEV1, spiro.Predicted.FEV1Pred)))
			ui.Field("FEV1/FVC", fmt.Sprintf("%.2f (LLN %.2f)", spiro.Actual.Ratio, spiro.Predicted.RatioLLN))
			ui.Field("PEF", fmt.Sprintf("%.1f L/s", spiro.Actual.PEF))
			ui.Field("Diagnosis", spiro.Diagnosis)
		}
	}

	if caseJSON {
		data, err := json.MarshalIndent(c, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to encode case: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(data))
	}
	return nil
}
