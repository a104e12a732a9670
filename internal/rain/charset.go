package rain

import "github.com/mattn/go-runewidth"

// glyphs is the palette trails draw from: the digits 0 and 1, the uppercase
// Cyrillic block and a Katakana selection.
var glyphs = []rune{
	'0', '1',
	'А', 'Б', 'В', 'Г', 'Д', 'Е', 'Ж', 'З', 'И', 'Й',
	'К', 'Л', 'М', 'Н', 'О', 'П', 'Р', 'С', 'Т', 'У',
	'Ф', 'Х', 'Ц', 'Ч', 'Ш', 'Щ', 'Ъ', 'Ы', 'Ь', 'Э',
	'Ю', 'Я',
	'ア', 'イ', 'ウ', 'エ', 'オ', 'カ', 'キ', 'ク', 'ケ', 'コ',
	'サ', 'シ', 'ス', 'セ', 'ソ', 'タ', 'チ', 'ッ', 'テ', 'ト',
	'ナ', 'ニ', 'ヌ', 'ネ', 'ノ', 'ハ', 'ヒ', 'フ', 'ヘ', 'ホ',
	'マ', 'ミ', 'ム', 'メ', 'モ', 'ヤ', 'ユ', 'ヨ',
	'ラ', 'リ', 'ル', 'レ', 'ロ', 'ワ', 'ヲ', 'ン',
}

func (r *lcg) glyph() rune {
	return glyphs[r.intn(0, len(glyphs))]
}

// WidestGlyph reports the cell width of the widest palette rune. Terminal
// hosts use it as the character-cell width; the Katakana block makes it 2 on
// any east-asian-aware terminal.
func WidestGlyph() int {
	w := 1
	for _, g := range glyphs {
		if rw := runewidth.RuneWidth(g); rw > w {
			w = rw
		}
	}
	return w
}
