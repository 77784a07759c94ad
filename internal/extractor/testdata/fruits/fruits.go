package fruits

import (
	"fmt"
	"strings"
)

// Fruit is anything sold by weight.
//
//inherit:base
type Fruit struct {
	Weight float64
}

// cost prices a fruit at the given price per kilo.
//
//inherit:require Fruit
func cost(f Fruit, price float64)

// Peelable fruit has a skin.
//
//inherit:interface
type Peelable interface {
	peel(knife string)
}

//inherit:implement
type Apple struct {
	Fruit
	Coresize int
}

//inherit:implement
type Orange struct {
	Fruit
	Peelable
	Segments []string
}

//inherit:implement
type Kiwi struct {
	*Fruit
	Peelable
	label fmt.Stringer
}

func (a Apple) cost(price float64) {
	fmt.Println(a.Weight * price)
}

func (k *Kiwi) cost(price float64) {}

func (o Orange) peel(knife string) {}

func (k *Kiwi) peel(knife string) {
	_ = strings.ToUpper(knife)
}

func helper() {}
