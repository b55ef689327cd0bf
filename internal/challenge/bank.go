package challenge

import (
	"fmt"
	"os"

	"botgate/internal/models"

	"gopkg.in/yaml.v3"
)

// Category is a named pool of images that match one prompt (for the image
// grid stage). Assets are references the client can fetch; composing the
// actual files is the asset generator's business.
type Category struct {
	Name   string   `yaml:"name"`
	Images []string `yaml:"images"`
}

// PartEntry is one part-selection challenge: an image, the label of the part
// to click, and its bounding box. Box may be absent for degenerate entries.
type PartEntry struct {
	Image string              `yaml:"image"`
	Label string              `yaml:"label"`
	Box   *models.BoundingBox `yaml:"box,omitempty"`
}

// Bank holds every static ingredient challenges are built from.
type Bank struct {
	Categories []Category  `yaml:"categories"`
	Parts      []PartEntry `yaml:"parts"`
	VoiceWords []string    `yaml:"voice_words"`
}

// LoadBank reads and parses the challenge bank file.
func LoadBank(path string) (*Bank, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read challenge bank: %w", err)
	}

	var bank Bank
	if err := yaml.Unmarshal(data, &bank); err != nil {
		return nil, fmt.Errorf("failed to unmarshal challenge bank YAML: %w", err)
	}
	if err := bank.validate(); err != nil {
		return nil, fmt.Errorf("invalid challenge bank %s: %w", path, err)
	}
	return &bank, nil
}

func (b *Bank) validate() error {
	if len(b.Categories) < 2 {
		return fmt.Errorf("need at least 2 image categories, have %d", len(b.Categories))
	}
	total := 0
	for _, cat := range b.Categories {
		if cat.Name == "" {
			return fmt.Errorf("image category without a name")
		}
		if len(cat.Images) == 0 {
			return fmt.Errorf("image category %q has no images", cat.Name)
		}
		total += len(cat.Images)
	}
	if total < gridSize {
		return fmt.Errorf("need at least %d images across categories, have %d", gridSize, total)
	}
	if len(b.Parts) == 0 {
		return fmt.Errorf("no part-selection entries")
	}
	if len(b.VoiceWords) == 0 {
		return fmt.Errorf("no voice words")
	}
	return nil
}
