package feature_test

import (
	"fmt"

	"github.com/tunogya/rally/pkg/feature"
	"github.com/tunogya/rally/pkg/model"
)

func ExampleAssemble() {
	outcomes, _ := model.FromRows([][]float64{{1.0, 0.0}, {0.5, 0.5}, {0.0, 1.0}})

	fm, err := feature.Assemble(outcomes, []int{1}, []float64{0.9})
	if err != nil {
		fmt.Println(err)
		return
	}

	fmt.Println(fm.Rows, fm.Cols)
	fmt.Println(fm.Names[model.RowOutcome], fm.Row(model.RowOutcome))
	// Output:
	// 6 6
	// outcome [1 0.5 0 0 0.5 1]
}
