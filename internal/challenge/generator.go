package challenge

import (
	"fmt"
	"math/rand"
	"path"
	"sort"

	"botgate/internal/models"
	"botgate/internal/utils"

	"github.com/google/uuid"
)

const (
	// gridSize is the number of tiles in an image challenge.
	gridSize = 9
	// tokenLength is the number of characters in a generated text token.
	tokenLength = 6
)

// Generator builds challenge payload / ground-truth pairs from the bank.
// Payload asset references point under assetBase; rendering the referenced
// files is delegated to the external asset generator and does not gate
// issuance.
type Generator struct {
	bank      *Bank
	assetBase string
}

func NewGenerator(bank *Bank, assetBase string) *Generator {
	return &Generator{bank: bank, assetBase: assetBase}
}

// Challenge produces a fresh payload and ground truth for the given stage.
func (g *Generator) Challenge(stage models.Stage) (*models.ChallengePayload, *models.GroundTruth, error) {
	switch stage {
	case models.StageText:
		return g.textChallenge()
	case models.StageImage:
		return g.imageChallenge()
	case models.StagePart:
		return g.partChallenge()
	case models.StageVoice:
		return g.voiceChallenge()
	default:
		return nil, nil, fmt.Errorf("stage %s takes no challenge", stage)
	}
}

func (g *Generator) textChallenge() (*models.ChallengePayload, *models.GroundTruth, error) {
	token, err := utils.RandomToken(tokenLength)
	if err != nil {
		return nil, nil, err
	}
	payload := &models.ChallengePayload{
		Image: g.assetRef("png"),
	}
	return payload, &models.GroundTruth{Token: token}, nil
}

func (g *Generator) imageChallenge() (*models.ChallengePayload, *models.GroundTruth, error) {
	catIdx := rand.Intn(len(g.bank.Categories))
	category := g.bank.Categories[catIdx]

	// Between 3 and 5 matching tiles, bounded by what the category holds
	// and by the grid itself.
	matching := append([]string(nil), category.Images...)
	rand.Shuffle(len(matching), func(i, j int) { matching[i], matching[j] = matching[j], matching[i] })
	want := 3 + rand.Intn(3)
	if want > len(matching) {
		want = len(matching)
	}
	matching = matching[:want]

	var distractors []string
	for i, cat := range g.bank.Categories {
		if i == catIdx {
			continue
		}
		distractors = append(distractors, cat.Images...)
	}
	rand.Shuffle(len(distractors), func(i, j int) { distractors[i], distractors[j] = distractors[j], distractors[i] })
	need := gridSize - len(matching)
	if need > len(distractors) {
		return nil, nil, fmt.Errorf("challenge bank too small: need %d distractors for category %q", need, category.Name)
	}

	// Shuffle via a permutation so correct positions are tracked by index,
	// not by image name (names may repeat across categories).
	pool := append(matching, distractors[:need]...)
	perm := rand.Perm(len(pool))
	grid := make([]string, len(pool))
	var indices []int
	for i, pos := range perm {
		grid[pos] = pool[i]
		if i < len(matching) {
			indices = append(indices, pos)
		}
	}
	sort.Ints(indices)

	payload := &models.ChallengePayload{
		Images:   grid,
		Category: category.Name,
	}
	return payload, &models.GroundTruth{Indices: indices}, nil
}

func (g *Generator) partChallenge() (*models.ChallengePayload, *models.GroundTruth, error) {
	entry := g.bank.Parts[rand.Intn(len(g.bank.Parts))]
	payload := &models.ChallengePayload{
		Image:    entry.Image,
		Category: entry.Label,
	}
	truth := &models.GroundTruth{}
	if entry.Box != nil {
		box := *entry.Box
		truth.Box = &box
	}
	return payload, truth, nil
}

func (g *Generator) voiceChallenge() (*models.ChallengePayload, *models.GroundTruth, error) {
	word := g.bank.VoiceWords[rand.Intn(len(g.bank.VoiceWords))]
	payload := &models.ChallengePayload{
		Audio: g.assetRef("wav"),
	}
	return payload, &models.GroundTruth{Token: word}, nil
}

func (g *Generator) assetRef(ext string) string {
	return path.Join(g.assetBase, uuid.NewString()+"."+ext)
}
