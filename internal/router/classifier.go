package router

import (
	"strings"

	"github.com/protoslabs/cellchat/internal/domain"
	"github.com/protoslabs/cellchat/internal/registry"
)

// DefaultMinScore is the classification threshold: messages scoring below
// it route to the default agent regardless of which descriptor matched.
const DefaultMinScore = 1.0

// screenBonus is added to an agent's score when the session is on a screen
// in that agent's territory. It nudges ambiguous messages toward the agent
// the user is already working with, without overriding a clear keyword win.
const screenBonus = 0.5

// screenAffinity maps screens to the agent whose work happens there.
var screenAffinity = map[domain.Screen]string{
	domain.ScreenMaterialSelector:     registry.AgentCellDesigner,
	domain.ScreenCathodeMaterials:     registry.AgentCellDesigner,
	domain.ScreenAnodeMaterials:       registry.AgentCellDesigner,
	domain.ScreenElectrolyteMaterials: registry.AgentCellDesigner,
	domain.ScreenSeparatorMaterials:   registry.AgentCellDesigner,
	domain.ScreenCellDesign:           registry.AgentCellDesigner,
	domain.ScreenSimulationResults:    registry.AgentCellSimulation,
}

// Classifier scores free-form input against the registry's capability
// phrases. Scores are weighted by phrase word count so longer, more
// specific phrases dominate single keywords. Classification is pure:
// the same text and snapshot always produce the same decision.
type Classifier struct {
	registry *registry.Registry
	minScore float64
}

// NewClassifier builds a classifier over reg. minScore <= 0 selects
// DefaultMinScore.
func NewClassifier(reg *registry.Registry, minScore float64) *Classifier {
	if minScore <= 0 {
		minScore = DefaultMinScore
	}
	return &Classifier{registry: reg, minScore: minScore}
}

// Classify selects the agent for text given the session's current screen.
// The strictly highest score wins; equal scores fall to the higher static
// priority, and a tie on both selects the default agent. A best score
// below the threshold also selects the default agent.
func (c *Classifier) Classify(text string, snapshot domain.ContextSnapshot) RoutingDecision {
	normalized := " " + normalize(text) + " "

	var (
		best        registry.Descriptor
		bestScore   float64
		bestMatched []string
		tied        bool
	)
	for _, d := range c.registry.All() {
		score, matched := scoreDescriptor(normalized, d)
		if agentID, ok := screenAffinity[snapshot.Screen]; ok && agentID == d.ID && score > 0 {
			score += screenBonus
		}
		switch {
		case score > bestScore:
			best, bestScore, bestMatched, tied = d, score, matched, false
		case score == bestScore && score > 0:
			if d.Priority > best.Priority {
				best, bestMatched, tied = d, matched, false
			} else if d.Priority == best.Priority {
				tied = true
			}
		}
	}

	if bestScore < c.minScore || tied {
		return RoutingDecision{
			AgentID:     registry.DefaultAgentID,
			MatchedRule: "default",
			Confidence:  bestScore,
		}
	}
	return RoutingDecision{
		AgentID:     best.ID,
		MatchedRule: strings.Join(bestMatched, ","),
		Confidence:  bestScore,
	}
}

// scoreDescriptor sums the word counts of every capability phrase found in
// the normalized text. Matches are whole-word: "simulate" does not fire on
// "dissimulated".
func scoreDescriptor(normalized string, d registry.Descriptor) (float64, []string) {
	var (
		score   float64
		matched []string
	)
	for _, phrase := range d.Capabilities {
		p := strings.ToLower(phrase)
		if strings.Contains(normalized, " "+p+" ") {
			score += float64(len(strings.Fields(p)))
			matched = append(matched, phrase)
		}
	}
	return score, matched
}
