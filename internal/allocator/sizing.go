package allocator

// LoadFactor is the maximum fill ratio of open-addressing tables.
const LoadFactor = 0.9

var primes = [...]uint64{
	0, 1, 5, 11, 23, 53, 101, 197,
	389, 683, 1259, 2417, 4733, 9371, 18617,
	37097, 74093, 148073, 296099, 592019, 1100009,
	2200013, 4400021, 8800019,
}

// IdealSize returns the slot count an open-addressing table needs to hold n
// items: the first listed prime at or above (n+1)/LoadFactor, or the first
// multiple of the largest prime beyond that.
func IdealSize(n uint64) uint64 {
	want := uint64(float64(n+1) / LoadFactor)
	for _, p := range primes {
		if p >= want {
			return p
		}
	}

	last := primes[len(primes)-1]
	size := last
	for size < want {
		size += last
	}
	return size
}
