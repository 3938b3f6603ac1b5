package bitvec

import "math/bits"

func set(u []byte, i int) bool {
	k, b := i>>3, byte(1)<<uint(i&7)
	v := u[k]
	if v&b == 0 {
		u[k] = v | b
		return true
	}
	return false
}

func unset(u []byte, i int) bool {
	k, b := i>>3, byte(1)<<uint(i&7)
	v := u[k]
	if v&b != 0 {
		u[k] = v &^ b
		return true
	}
	return false
}

func has(u []byte, i int) bool {
	k, b := i>>3, byte(1)<<uint(i&7)
	return u[k]&b != 0
}

// setRange sets or clears bits lo..hi-1.
func setRange(u []byte, lo, hi int, v bool) {
	for lo < hi && lo&7 != 0 {
		put(u, lo, v)
		lo++
	}
	var fill byte
	if v {
		fill = 0xff
	}
	for ; lo+8 <= hi; lo += 8 {
		u[lo>>3] = fill
	}
	for ; lo < hi; lo++ {
		put(u, lo, v)
	}
}

func put(u []byte, i int, v bool) {
	if v {
		set(u, i)
	} else {
		unset(u, i)
	}
}

func count(u []byte) int {
	n := 0
	for _, b := range u {
		n += bits.OnesCount8(b)
	}
	return n
}

func bytesFor(nbits int) int {
	n := nbits >> 3
	if nbits&7 != 0 {
		n++
	}
	return n
}

// grown doubles a byte capacity starting from one, but never below need.
func grown(capacity, need int) int {
	c := capacity * 2
	if c < 1 {
		c = 1
	}
	if c < need {
		c = need
	}
	return c
}
