package dictionary

import (
	"strings"
)

var arpabetToIPA = map[string]string{
	"AA": "ɑ", "AE": "æ", "AH": "ə", "AO": "ɔ", "AW": "aʊ", "AY": "aɪ",
	"B": "b", "CH": "ʧ", "D": "d", "DH": "ð", "EH": "ɛ", "ER": "ər",
	"EY": "eɪ", "F": "f", "G": "g", "HH": "h", "IH": "ɪ", "IY": "i",
	"JH": "ʤ", "K": "k", "L": "l", "M": "m", "N": "n", "NG": "ŋ",
	"OW": "oʊ", "OY": "ɔɪ", "P": "p", "R": "r", "S": "s", "SH": "ʃ",
	"T": "t", "TH": "θ", "UH": "ʊ", "UW": "u", "V": "v", "W": "w",
	"Y": "j", "Z": "z", "ZH": "ʒ",
}

const (
	primaryStress   = "ˈ"
	secondaryStress = "ˌ"
)

// ToIPA renders ARPAbet phones as IPA. Stress marks are only written for words
// with more than one vowel and go before the consonant preceding the stressed
// vowel. Unknown phones are kept lower-cased.
func ToIPA(phones []string) string {
	type seg struct {
		ipa    string
		stress byte
	}
	segs := make([]seg, 0, len(phones))
	vowels := 0
	for _, p := range phones {
		base, stress := splitStress(p)
		sym, ok := arpabetToIPA[base]
		if !ok {
			sym = strings.ToLower(base)
		}
		if stress != 0 {
			vowels++
		}
		segs = append(segs, seg{ipa: sym, stress: stress})
	}

	marks := make([]string, len(segs))
	if vowels > 1 {
		for i, s := range segs {
			var mark string
			switch s.stress {
			case '1':
				mark = primaryStress
			case '2':
				mark = secondaryStress
			default:
				continue
			}
			at := i
			if i > 0 && segs[i-1].stress == 0 {
				at = i - 1
			}
			marks[at] = mark
		}
	}

	var b strings.Builder
	for i, s := range segs {
		b.WriteString(marks[i])
		b.WriteString(s.ipa)
	}
	return b.String()
}

// splitStress separates a vowel's trailing stress digit. Consonants report 0.
func splitStress(phone string) (string, byte) {
	phone = strings.ToUpper(phone)
	if n := len(phone); n > 1 {
		if c := phone[n-1]; c >= '0' && c <= '2' {
			return phone[:n-1], c
		}
	}
	return phone, 0
}
