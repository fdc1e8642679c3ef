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

import "testing"

func run(s State, input string) State {
	for i := 0; i < len(input); i++ {
		s = Next(s, input[i])
	}
	return s
}

func TestTransitions(t *testing.T) {
	tests := []struct {
		name   string
		from   State
		input  string
		expect State
	}{
		{"PlainText", NoMatch, "abc", NoMatch},
		{"FirstBracket", NoMatch, "]", FirstBracket},
		{"SecondBracket", NoMatch, "]]", SecondBracket},
		{"FirstBigger", NoMatch, "]]>", FirstBigger},
		{"ThirdBracket", NoMatch, "]]>]", ThirdBracket},
		{"EndingBigger", NoMatch, "]]>]]", EndingBigger},
		{"EndPattern", NoMatch, "]]>]]>", EndPattern},
		{"EndPatternAfterContent", NoMatch, "<ok/>]]>]]>", EndPattern},
		{"BrokenMarker", NoMatch, "]]>x", NoMatch},
		{"BrokenMarkerRestarts", NoMatch, "]]>]x]]>]]>", EndPattern},
		{"TripleBracket", NoMatch, "]]]>]]>", EndPattern},
		{"BracketAfterEndingBigger", NoMatch, "]]>]]]>]]>", EndPattern},
		{"FirstLF", NoMatch, "\n", FirstLF},
		{"BlankLines", NoMatch, "\n\n\n", FirstLF},
		{"FirstHash", NoMatch, "\n#", FirstHash},
		{"SecondHash", NoMatch, "\n##", SecondHash},
		{"EndChunkedPattern", NoMatch, "\n##\n", EndChunkedPattern},
		{"ChunkHeader", NoMatch, "\n#12\n", FirstLF},
		{"WholeChunkedMessage", NoMatch, "\n#6\n<rpc/>\n##\n", EndChunkedPattern},
		{"LFIntoBracket", NoMatch, "\n]]>]]>", EndPattern},
		{"LFOther", NoMatch, "\nx", NoMatch},
		{"BracketBeforeEndOfChunks", NoMatch, "a]\n##\n", EndChunkedPattern},
		{"BracketIntoEndOfChunks", NoMatch, "]\n##\n", EndChunkedPattern},
		{"BracketsIntoEndOfChunks", NoMatch, "]]\n##\n", EndChunkedPattern},
		{"PartialMarkerIntoEndOfChunks", NoMatch, "]]>]]\n##\n", EndChunkedPattern},
		{"SecondBracketKeepsBracket", SecondBracket, "]", SecondBracket},
		{"EndingBiggerKeepsBracket", EndingBigger, "]", SecondBracket},
		{"HashBreak", NoMatch, "\n#x", NoMatch},
		{"EndPatternResets", EndPattern, "]", NoMatch},
		{"EndChunkedResets", EndChunkedPattern, "\n", NoMatch},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := run(tt.from, tt.input); got != tt.expect {
				t.Errorf("Next %s: wanted %s got %s", tt.name, tt.expect, got)
			}
		})
	}
}

func TestTerminal(t *testing.T) {
	for s := NoMatch; s <= EndChunkedPattern; s++ {
		expect := s == EndPattern || s == EndChunkedPattern
		if s.Terminal() != expect {
			t.Errorf("State %s: terminal wanted %v", s, expect)
		}
	}
	if State(99).String() != "UNKNOWN" {
		t.Errorf("unexpected name for invalid state")
	}
}
