package types

type Sentence struct {
	Index  int
	Tokens []Token
}

func (sent Sentence) Len() int {
	return len(sent.Tokens)
}

func (sent Sentence) Words() []string {
	words := make([]string, len(sent.Tokens))
	for i, token := range sent.Tokens {
		words[i] = token.GetWord()
	}
	return words
}

func (sent Sentence) Tags() []string {
	tags := make([]string, len(sent.Tokens))
	for i, token := range sent.Tokens {
		tags[i] = token.Tag
	}
	return tags
}
