package render

// mulTab[w][c] is w*c/255 for all byte pairs. Blending with weights that
// sum to 255 stays channel-exact: mulTab[255][c] == c, so a zero-fraction
// bilinear blend reproduces the source pixel bit for bit.
var mulTab [256][256]uint8

func init() {
	for w := 0; w < 256; w++ {
		for c := 0; c < 256; c++ {
			mulTab[w][c] = uint8(w * c / 255)
		}
	}
}

// Blend5050 averages two pixels channel-wise. The low bit of each channel
// is dropped, which is what the halving trick costs.
func Blend5050(a, b uint32) uint32 {
	return (a>>1)&0x7F7F7F7F + (b>>1)&0x7F7F7F7F
}

// BlendMax keeps the brighter of each channel.
func BlendMax(a, b uint32) uint32 {
	var out uint32
	for shift := 0; shift < 32; shift += 8 {
		ca := a >> shift & 0xFF
		cb := b >> shift & 0xFF
		if cb > ca {
			ca = cb
		}
		out |= ca << shift
	}
	return out
}

// BlendBilinear mixes four neighbors with 8-bit fractional offsets. c00
// is the base pixel, c01 its right neighbor, c10 the one below, c11 the
// diagonal; xf and yf are the horizontal and vertical fractions. The four
// weights are forced to sum to exactly 255, so xf == yf == 0 returns c00
// unchanged.
func BlendBilinear(c00, c01, c10, c11 uint32, xf, yf uint8) uint32 {
	w11 := mulTab[xf][yf]
	w01 := mulTab[xf][255-yf]
	w10 := mulTab[255-xf][yf]
	w00 := uint8(255) - w01 - w10 - w11
	var out uint32
	for shift := 0; shift < 32; shift += 8 {
		c := uint32(mulTab[w00][c00>>shift&0xFF]) +
			uint32(mulTab[w01][c01>>shift&0xFF]) +
			uint32(mulTab[w10][c10>>shift&0xFF]) +
			uint32(mulTab[w11][c11>>shift&0xFF])
		out |= c << shift
	}
	return out
}
