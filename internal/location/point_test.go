package location

import "testing"

func TestGnssConfigNumber(t *testing.T) {
	cases := []struct {
		c    Constellation
		want int
	}{
		{ConstellationDefault, 1},
		{ConstellationGPSOnly, 1},
		{ConstellationGPSGlonass, 1},
		{ConstellationGPSBeidou, 2},
		{ConstellationGPSGalileo, 3},
		{ConstellationGPSQZSS, 4},
		{ConstellationGPSGlonass | ConstellationGPSBeidou, 1},
	}
	for _, c := range cases {
		if got := gnssConfigNumber(c.c); got != c.want {
			t.Fatalf("gnssConfigNumber(%d) = %d, want %d", c.c, got, c.want)
		}
	}
}
