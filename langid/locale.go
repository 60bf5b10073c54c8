package langid

import "golang.org/x/text/language"

// recognitionLocales are the locales recognition sessions can be opened
// with. The matcher picks the closest one for a bare hypothesis code.
var recognitionLocales = []language.Tag{
	language.AmericanEnglish,
	language.EuropeanSpanish,
	language.French,
	language.German,
	language.Italian,
	language.BrazilianPortuguese,
	language.Russian,
	language.Japanese,
	language.Korean,
	language.SimplifiedChinese,
}

var localeMatcher = language.NewMatcher(recognitionLocales)

// RecognitionLocale maps a language hypothesis code (ISO 639-1) to the
// locale a recognition session should be configured with. Unparseable codes
// are returned unchanged so the recognizer can reject them itself.
func RecognitionLocale(code string) string {
	tag, err := language.Parse(code)
	if err != nil {
		return code
	}
	_, index, conf := localeMatcher.Match(tag)
	if conf == language.No {
		return code
	}
	return recognitionLocales[index].String()
}
