package gorules

import "github.com/quasilyte/go-ruleguard/dsl"

func smells(m dsl.Matcher) {
	// Consecutive guards with the same return can be merged:
	//   if a { return err }
	//   if b { return err }
	// => if a || b { return err }
	m.Match(`if $c1 { return $ret }; if $c2 { return $ret }`).
		Report(`two consecutive guards return the same value; consider merging conditions with ||`).
		Suggest(`if $c1 || $c2 { return $ret }`)

	m.Match(`if $c1 { continue }; if $c2 { continue }`).
		Report(`two consecutive continues; consider merging conditions with ||`).
		Suggest(`if $c1 || $c2 { continue }`)

	// Nested loops over the token sequence are where generation gets quadratic.
	m.Match(`for $*_ { for $*_ { $*_ } }`).
		Report(`nested for-loop; consider extracting inner loop logic or reducing algorithmic complexity`)
}

// randomness keeps every random choice on an injected source so runs stay reproducible.
func randomness(m dsl.Matcher) {
	m.Import(`math/rand/v2`)

	m.Match(`rand.IntN($n)`, `rand.N($n)`, `rand.Int()`, `rand.Shuffle($*_)`).
		Where(!m.File().Name.Matches(`_test\.go$`) && !m.File().Name.Matches(`source\.go$`)).
		Report(`package-level math/rand call; draw from an injected press.Source instead`)
}
