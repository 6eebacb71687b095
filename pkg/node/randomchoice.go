package node

import (
	"context"
	"math"
	"math/rand"

	"github.com/sirupsen/logrus"

	"github.com/shiertier/ComfyUI-shiertiertools/pkg/logger"
)

const (
	RandomChoiceID          = "RandomChoiceList"
	RandomChoiceDisplayName = "随机选择(列表)"
)

// RandomChoice returns one element of its input list, picked uniformly.
//
// The seed input is validated and logged but does not seed the generator, so
// repeated runs with the same seed may pick different elements.
type RandomChoice struct {
	intN func(n int) int
	log  *logrus.Entry
}

func NewRandomChoice() *RandomChoice {
	return &RandomChoice{
		intN: rand.Intn,
		log:  logger.GetLogger(RandomChoiceID),
	}
}

func (n *RandomChoice) InputTypes() InputTypes {
	return InputTypes{
		Required: []InputSpec{
			{Name: "input_list", Type: "STRING", IsList: true, Options: map[string]any{"forceInput": true}},
		},
		Optional: []InputSpec{
			{Name: "seed", Type: "INT", Options: map[string]any{
				"default": 0,
				"min":     0,
				"max":     uint64(math.MaxUint64),
			}},
		},
	}
}

func (n *RandomChoice) ReturnTypes() []string    { return []string{"STRING"} }
func (n *RandomChoice) ReturnNames() []string    { return []string{"choice"} }
func (n *RandomChoice) OutputTooltips() []string { return nil }
func (n *RandomChoice) Function() string         { return "random_choice" }
func (n *RandomChoice) Category() string         { return "utils" }
func (n *RandomChoice) Description() string      { return "从输入列表中随机选择一个元素。" }

func (n *RandomChoice) Invoke(_ context.Context, args Args) ([]any, error) {
	items, err := args.Strings("input_list")
	if err != nil {
		return nil, &ValueError{Msg: "无效的输入列表", Err: err}
	}
	if len(items) == 0 {
		return nil, &ValueError{Msg: "输入列表不能为空"}
	}

	seed, err := args.Uint64("seed", 0)
	if err != nil {
		return nil, &ValueError{Msg: "无效的种子", Err: err}
	}

	choice := items[n.intN(len(items))]
	n.log.Debugf("Picked %q from %d items (seed: %d)", choice, len(items), seed)

	return []any{choice}, nil
}
