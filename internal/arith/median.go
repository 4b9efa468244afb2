package arith

// Median5 tracks an approximate running median of the last five values.
//
// The zero value is ready to use and reports 0.
type Median5 struct {
	values [5]int32
	low    bool // false while the next insertion favours the high side
}

// Reset clears the tracker.
func (m *Median5) Reset() {
	*m = Median5{}
}

// Get returns the current median.
func (m *Median5) Get() int32 {
	return m.values[2]
}

// Add inserts v.
func (m *Median5) Add(v int32) {
	vals := &m.values

	if !m.low {
		if v < vals[2] {
			vals[4] = vals[3]
			vals[3] = vals[2]
			switch {
			case v < vals[0]:
				vals[2] = vals[1]
				vals[1] = vals[0]
				vals[0] = v
			case v < vals[1]:
				vals[2] = vals[1]
				vals[1] = v
			default:
				vals[2] = v
			}

			return
		}

		if v < vals[3] {
			vals[4] = vals[3]
			vals[3] = v
		} else {
			vals[4] = v
		}
		m.low = true

		return
	}

	if vals[2] < v {
		vals[0] = vals[1]
		vals[1] = vals[2]
		switch {
		case vals[4] < v:
			vals[2] = vals[3]
			vals[3] = vals[4]
			vals[4] = v
		case vals[3] < v:
			vals[2] = vals[3]
			vals[3] = v
		default:
			vals[2] = v
		}

		return
	}

	if vals[1] < v {
		vals[0] = vals[1]
		vals[1] = v
	} else {
		vals[0] = v
	}
	m.low = false
}
