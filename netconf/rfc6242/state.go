// Copyright 2018 Andrew Fort
//
//    Licensed under the Apache License, Version 2.0 (the "License");
//    you may not use this file except in compliance with the License.
//    You may obtain a copy of the License at
//
//        http://www.apache.org/licenses/LICENSE-2.0
//
//    Unless required by applicable law or agreed to in writing, software
//    distributed under the License is distributed on an "AS IS" BASIS,
//    WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
//    See the License for the specific language governing permissions and
//    limitations under the License.

package rfc6242

// State is the position of the framing recogniser within the two end of message grammars:
// the :base:1.0 end-of-message token "]]>]]>" and the :base:1.1 end-of-chunks token "\n##\n".
// Both grammars share one state space so that a single pass over the input recognises either.
type State int

// Recogniser states.
const (
	NoMatch State = iota
	FirstBracket
	SecondBracket
	FirstBigger
	ThirdBracket
	EndingBigger
	EndPattern
	FirstLF
	FirstHash
	SecondHash
	EndChunkedPattern
)

var stateNames = [...]string{
	NoMatch:           "NO_MATCH",
	FirstBracket:      "FIRST_BRACKET",
	SecondBracket:     "SECOND_BRACKET",
	FirstBigger:       "FIRST_BIGGER",
	ThirdBracket:      "THIRD_BRACKET",
	EndingBigger:      "ENDING_BIGGER",
	EndPattern:        "END_PATTERN",
	FirstLF:           "FIRST_LF",
	FirstHash:         "FIRST_HASH",
	SecondHash:        "SECOND_HASH",
	EndChunkedPattern: "END_CHUNKED_PATTERN",
}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return "UNKNOWN"
	}
	return stateNames[s]
}

// Terminal reports whether s marks the end of a message.
func (s State) Terminal() bool {
	return s == EndPattern || s == EndChunkedPattern
}

// Next returns the state reached from s on reading c.
//
// Exactly one byte is consumed per call; there is no look-ahead. When c breaks a partial match,
// it is re-read from NoMatch, so a byte that cannot continue one token may still start the next.
func Next(s State, c byte) State {
	switch s {
	case EndPattern, EndChunkedPattern:
		// The caller resets after consuming the message.
		return NoMatch
	case NoMatch:
		return fromNoMatch(c)
	case FirstBracket:
		if c == ']' {
			return SecondBracket
		}
	case SecondBracket:
		switch c {
		case '>':
			return FirstBigger
		case ']':
			// "]]]" still ends with a valid "]]" prefix.
			return SecondBracket
		}
	case FirstBigger:
		if c == ']' {
			return ThirdBracket
		}
	case ThirdBracket:
		if c == ']' {
			return EndingBigger
		}
	case EndingBigger:
		switch c {
		case '>':
			return EndPattern
		case ']':
			return SecondBracket
		}
	case FirstLF:
		switch c {
		case '#':
			return FirstHash
		case ']':
			return FirstBracket
		case '\n':
			return FirstLF
		}
	case FirstHash:
		if c == '#' {
			return SecondHash
		}
	case SecondHash:
		if c == '\n' {
			return EndChunkedPattern
		}
	}
	return fromNoMatch(c)
}

func fromNoMatch(c byte) State {
	switch c {
	case ']':
		return FirstBracket
	case '\n':
		return FirstLF
	}
	return NoMatch
}
