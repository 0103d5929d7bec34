package pipeline

import (
	"context"
	"fmt"
	"math"
	"strings"
	"unicode"
)

// lexiconLabels names the two classes of a binary sentiment model.
type lexiconLabels struct {
	negative string
	positive string
}

// lexiconModels lists the binary sentiment models whose label sets the
// lexicon backend reproduces offline.
var lexiconModels = map[string]lexiconLabels{
	"distilbert-base-uncased-finetuned-sst-2-english":            {negative: "NEGATIVE", positive: "POSITIVE"},
	"distilbert/distilbert-base-uncased-finetuned-sst-2-english": {negative: "NEGATIVE", positive: "POSITIVE"},
	"siebert/sentiment-roberta-large-english":                    {negative: "NEGATIVE", positive: "POSITIVE"},
	"lexicon-sst2":                                               {negative: "NEGATIVE", positive: "POSITIVE"},
}

// polarity weights. A single weight-3 word yields a score of ~0.95.
var polarity = map[string]float64{
	"love": 3, "loved": 3, "loves": 3, "amazing": 3, "excellent": 3, "fantastic": 3,
	"wonderful": 3, "awesome": 3, "brilliant": 3, "perfect": 3, "outstanding": 3,
	"great": 2.5, "enjoy": 2, "enjoyed": 2, "like": 1.5, "liked": 1.5, "good": 2,
	"nice": 1.5, "happy": 2, "glad": 1.5, "pleasant": 1.5, "easy": 1.5, "fun": 2,
	"helpful": 1.5, "best": 2.5, "beautiful": 2.5, "impressive": 2, "fast": 1,
	"special": 1, "okay": 0.5, "ok": 0.5, "fine": 0.5, "recommend": 2,
	"hate": -3, "hated": -3, "hates": -3, "terrible": -3, "awful": -3, "horrible": -3,
	"worst": -3, "disgusting": -3, "dreadful": -3, "useless": -2.5, "bad": -2,
	"poor": -2, "boring": -2, "broken": -2, "slow": -1, "sad": -2, "angry": -2,
	"annoying": -2, "disappointing": -2.5, "disappointed": -2.5, "hard": -1,
	"difficult": -1, "confusing": -1.5, "ugly": -2, "buggy": -2, "fail": -2,
	"failed": -2, "fails": -2, "problem": -1, "mediocre": -1.5, "meh": -1,
}

var negators = map[string]bool{
	"not": true, "no": true, "never": true, "nothing": true, "none": true,
	"neither": true, "nor": true, "without": true, "hardly": true,
}

var intensifiers = map[string]float64{
	"very": 1.5, "really": 1.5, "so": 1.3, "extremely": 2, "incredibly": 2,
	"super": 1.5, "totally": 1.3, "absolutely": 1.8, "quite": 1.2, "slightly": 0.5,
}

const (
	// negationWindow is the number of tokens a negator reaches forward.
	negationWindow = 3
	// maxBoost caps stacked intensifiers ("very very very ...").
	maxBoost = 4.0
	// maxPolarity bounds the summed score; sigmoid has saturated well before.
	maxPolarity = 40.0
)

// lexiconLoader builds lexicon pipelines.
type lexiconLoader struct{}

// NewLexiconLoader returns a loader for the offline lexicon backend.
func NewLexiconLoader() Loader { return lexiconLoader{} }

func (lexiconLoader) Load(ctx context.Context, modelID string) (Pipeline, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	labels, ok := lexiconModels[strings.TrimSpace(modelID)]
	if !ok {
		return nil, fmt.Errorf("%w: %s (lexicon backend)", ErrUnknownModel, modelID)
	}
	return &lexiconPipeline{labels: labels}, nil
}

// lexiconPipeline is immutable after construction.
type lexiconPipeline struct {
	labels lexiconLabels
}

func (p *lexiconPipeline) ConcurrentSafe() bool { return true }

func (p *lexiconPipeline) Classify(ctx context.Context, text string) (Prediction, error) {
	if err := ctx.Err(); err != nil {
		return Prediction{}, err
	}
	sum := lexiconScore(text)
	if sum < 0 {
		return Prediction{Label: p.labels.negative, Score: sigmoid(-sum)}, nil
	}
	return Prediction{Label: p.labels.positive, Score: sigmoid(sum)}, nil
}

// lexiconScore sums word polarities, applying negation and intensifiers to
// the next polar word.
func lexiconScore(text string) float64 {
	tokens := tokenize(text)
	var sum float64
	negateLeft := 0
	boost := 1.0
	for _, tok := range tokens {
		if negators[tok] || strings.HasSuffix(tok, "n't") {
			negateLeft = negationWindow
			continue
		}
		if m, ok := intensifiers[tok]; ok {
			boost = math.Min(boost*m, maxBoost)
			continue
		}
		w, ok := polarity[tok]
		if !ok {
			if negateLeft > 0 {
				negateLeft--
			}
			continue
		}
		w *= boost
		if negateLeft > 0 {
			w = -w
		}
		sum += w
		negateLeft = 0
		boost = 1.0
	}
	if math.IsNaN(sum) {
		return 0
	}
	return math.Max(-maxPolarity, math.Min(sum, maxPolarity))
}

func tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && r != '\''
	})
}

func sigmoid(x float64) float64 { return 1 / (1 + math.Exp(-x)) }
