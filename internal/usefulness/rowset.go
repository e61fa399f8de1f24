package usefulness

import "math/bits"

// rowSet is a growable bitset of row indices.
type rowSet []uint64

func (s *rowSet) insert(i int) {
	w := i / 64
	for len(*s) <= w {
		*s = append(*s, 0)
	}
	(*s)[w] |= 1 << (uint(i) % 64)
}

// insertRange adds [0, n).
func (s *rowSet) insertRange(n int) {
	for i := 0; i < n; i++ {
		s.insert(i)
	}
}

func (s rowSet) contains(i int) bool {
	w := i / 64
	return w < len(s) && s[w]&(1<<(uint(i)%64)) != 0
}

// members lists set rows in ascending order.
func (s rowSet) members() []int {
	var out []int
	for w, word := range s {
		for word != 0 {
			b := bits.TrailingZeros64(word)
			out = append(out, w*64+b)
			word &= word - 1
		}
	}
	return out
}
