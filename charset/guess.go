package charset

// GuessEncoding picks the most plausible character set for a byte segment
// that carries no ECI designator. A non-nil hint always wins.
func GuessEncoding(data []byte, hint *ECI) *ECI {
	if hint != nil {
		return hint
	}
	if len(data) > 2 && ((data[0] == 0xFE && data[1] == 0xFF) || (data[0] == 0xFF && data[1] == 0xFE)) {
		return UTF16BE
	}

	var g guess
	g.start()
	for _, b := range data {
		if !g.utf8 && !g.iso && !g.sjis {
			break
		}
		g.scan(b)
	}
	return g.verdict(data)
}

// guess tracks which character sets a byte sequence can still belong to,
// with the statistics used to break ties between them.
type guess struct {
	utf8, iso, sjis bool

	utf8Pending   int
	utf8MultiByte int

	isoHighOther int

	sjisPending       int
	sjisKatakana      int
	sjisKatakanaRun   int
	sjisDoubleRun     int
	sjisMaxKatakana   int
	sjisMaxDoubleByte int
}

func (g *guess) start() {
	g.utf8, g.iso, g.sjis = true, true, true
}

func (g *guess) scan(b byte) {
	if g.utf8 {
		g.scanUTF8(b)
	}
	if g.iso {
		switch {
		case b > 0x7F && b < 0xA0:
			g.iso = false
		case b > 0x9F && (b < 0xC0 || b == 0xD7 || b == 0xF7):
			g.isoHighOther++
		}
	}
	if g.sjis {
		g.scanShiftJIS(b)
	}
}

func (g *guess) scanUTF8(b byte) {
	switch {
	case g.utf8Pending > 0:
		if b&0xC0 != 0x80 {
			g.utf8 = false
			return
		}
		g.utf8Pending--
	case b&0x80 == 0:
	case b&0xE0 == 0xC0:
		g.utf8Pending = 1
		g.utf8MultiByte++
	case b&0xF0 == 0xE0:
		g.utf8Pending = 2
		g.utf8MultiByte++
	case b&0xF8 == 0xF0:
		g.utf8Pending = 3
		g.utf8MultiByte++
	default:
		g.utf8 = false
	}
}

func (g *guess) scanShiftJIS(b byte) {
	switch {
	case g.sjisPending > 0:
		if b < 0x40 || b == 0x7F || b > 0xFC {
			g.sjis = false
			return
		}
		g.sjisPending--
	case b == 0x80 || b == 0xA0 || b > 0xEF:
		g.sjis = false
	case b > 0xA0 && b < 0xE0:
		g.sjisKatakana++
		g.sjisDoubleRun = 0
		g.sjisKatakanaRun++
		g.sjisMaxKatakana = max(g.sjisMaxKatakana, g.sjisKatakanaRun)
	case b > 0x7F:
		g.sjisPending++
		g.sjisKatakanaRun = 0
		g.sjisDoubleRun++
		g.sjisMaxDoubleByte = max(g.sjisMaxDoubleByte, g.sjisDoubleRun)
	default:
		g.sjisKatakanaRun = 0
		g.sjisDoubleRun = 0
	}
}

func (g *guess) verdict(data []byte) *ECI {
	if g.utf8Pending > 0 {
		g.utf8 = false
	}
	if g.sjisPending > 0 {
		g.sjis = false
	}
	bom := len(data) > 3 && data[0] == 0xEF && data[1] == 0xBB && data[2] == 0xBF

	switch {
	case g.utf8 && (bom || g.utf8MultiByte > 0):
		return UTF8
	case g.sjis && (g.sjisMaxKatakana >= 3 || g.sjisMaxDoubleByte >= 3):
		return ShiftJIS
	case g.iso && g.sjis:
		if (g.sjisMaxKatakana == 2 && g.sjisKatakana == 2) || g.isoHighOther*10 >= len(data) {
			return ShiftJIS
		}
		return ISO8859_1
	case g.iso:
		return ISO8859_1
	case g.sjis:
		return ShiftJIS
	}
	return UTF8
}
