package c

func simple(x int) int {
	return x + 1
}

func branchy(x int) int { // want `cyclomatic complexity 5 of func branchy is high \(> 3\)`
	if x > 1 {
		x++
	}
	if x > 2 {
		x++
	}
	if x > 3 {
		x++
	}
	if x > 4 {
		x++
	}
	return x
}

type T struct{}

func (T) loop(xs []int) (n int) { // want `cyclomatic complexity 4 of func \(T\)\.loop is high \(> 3\)`
	for _, x := range xs {
		if x > 0 && x < 10 {
			n++
		}
	}
	return n
}
