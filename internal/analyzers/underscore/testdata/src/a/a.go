package a

type C struct {
	_value int // want `Field '_value' must not begin with an underscore`
	ok     int
}

var _count = 1 // want `Identifier '_count' must not begin with an underscore`

var _ = 2

func (c *C) Get() int {
	return c._value + _count + c.ok
}

func f() int {
	_local := 1
	return _local
}

var lit = C{_value: 3}
