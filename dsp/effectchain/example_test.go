package effectchain_test

import (
	"fmt"

	"github.com/cwbudde/algo-fxrack/dsp/audio"
	"github.com/cwbudde/algo-fxrack/dsp/effectchain"
)

func ExampleChain() {
	ctx, err := audio.NewContext(audio.NewPullDevice())
	if err != nil {
		panic(err)
	}
	defer ctx.Close()

	in, _, _ := ctx.NewGain("instrument", 1, 1)

	chain, err := effectchain.NewChain(ctx, in, ctx.Destination())
	if err != nil {
		panic(err)
	}

	reverb, _ := chain.Append(effectchain.KindReverb)
	_, _ = chain.Append(effectchain.KindDelay)

	applied, _ := chain.SetParam(reverb.ID(), "wet", 1.5)

	for _, n := range chain.Snapshot() {
		fmt.Println(n.DisplayName, n.Params.Names())
	}
	fmt.Println("wet:", applied)
	// Output:
	// Reverb [room damp wet]
	// Delay [time feedback wet]
	// wet: 1
}

func ExampleValidRange() {
	lo, hi, _ := effectchain.ValidRange(effectchain.KindCompressor, "threshold")
	fmt.Println(lo, hi)
	// Output: -60 0
}
