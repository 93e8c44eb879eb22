package extract

import (
	"iter"
	"regexp"
	"strconv"

	"github.com/ppiankov/biasprobe/internal/model"
)

// numberToken matches integers and decimals; "1,234" reads as 1 and 234
var numberToken = regexp.MustCompile(`\b\d+(?:\.\d+)?\b`)

// Numbers yields every numeric token of text rounded to precision decimal places
func Numbers(text string, precision int) iter.Seq[float64] {
	return func(yield func(float64) bool) {
		for _, tok := range numberToken.FindAllString(text, -1) {
			v, err := strconv.ParseFloat(tok, 64)
			if err != nil {
				continue
			}
			if !yield(model.Round(v, precision)) {
				return
			}
		}
	}
}
