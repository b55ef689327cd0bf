package detector

import (
	"encoding/json"
	"fmt"
	"os"

	"botgate/internal/models"
)

// Forest is a pre-trained decision forest loaded from a versioned JSON
// artifact. Training happens offline; at runtime the forest is read-only.
type Forest struct {
	Version string `json:"version"`
	Trees   []Tree `json:"trees"`
}

// Tree is a flat array of nodes; index 0 is the root.
type Tree struct {
	Nodes []Node `json:"nodes"`
}

// Node is either a split (Feature/Threshold/Left/Right) or a leaf (Label).
type Node struct {
	Leaf      bool    `json:"leaf,omitempty"`
	Label     Verdict `json:"label,omitempty"`
	Feature   string  `json:"feature,omitempty"`
	Threshold float64 `json:"threshold,omitempty"`
	Left      int     `json:"left,omitempty"`
	Right     int     `json:"right,omitempty"`
}

// LoadForest reads the classifier artifact from disk. It is called once at
// process start; a missing or malformed artifact is the caller's decision to
// treat as fatal or as a disabled detector.
func LoadForest(path string) (*Forest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read classifier artifact: %w", err)
	}

	var forest Forest
	if err := json.Unmarshal(data, &forest); err != nil {
		return nil, fmt.Errorf("failed to unmarshal classifier artifact: %w", err)
	}
	if forest.Version == "" {
		return nil, fmt.Errorf("classifier artifact %s carries no version", path)
	}
	if len(forest.Trees) == 0 {
		return nil, fmt.Errorf("classifier artifact %s contains no trees", path)
	}
	return &forest, nil
}

// Predict returns one verdict per feature vector by majority vote across the
// trees. Ties break toward bot.
func (f *Forest) Predict(features []models.FeatureVector) []Verdict {
	verdicts := make([]Verdict, len(features))
	for i, vector := range features {
		botVotes := 0
		for _, tree := range f.Trees {
			if tree.classify(vector) == VerdictBot {
				botVotes++
			}
		}
		if botVotes*2 >= len(f.Trees) {
			verdicts[i] = VerdictBot
		} else {
			verdicts[i] = VerdictHuman
		}
	}
	return verdicts
}

func (t Tree) classify(vector models.FeatureVector) Verdict {
	idx := 0
	for idx >= 0 && idx < len(t.Nodes) {
		node := t.Nodes[idx]
		if node.Leaf {
			return node.Label
		}

		value := vector.Velocity
		if node.Feature == "acceleration" {
			value = vector.Acceleration
		}
		if value <= node.Threshold {
			idx = node.Left
		} else {
			idx = node.Right
		}
	}
	// Malformed tree: an out-of-range child index. Vote human so a broken
	// artifact cannot silently deny everyone.
	return VerdictHuman
}
