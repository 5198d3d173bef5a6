// Package gs implements guided scrambling over GF(q).
//
// Each payload word is prefixed with every word of a fixed augmenting set and
// multiplied by a shared scrambling polynomial (ScramblerGroup). An Analyzer
// scores the candidates against the running digital sum of the committed
// stream and the GuidedScrambler emits the best one together with its
// selection index. The Descrambler divides by the same polynomial and drops
// the augmenting symbols, so it never needs the selection index.
//
// Block mode treats every word independently. Continuous mode carries the
// product overflow of each slot into its next word. Every slot advances on
// every word, so in continuous mode all slots hold the same carried state as
// long as the payload is at least DivisorLength-1 symbols long; Config.Build
// enforces that.
package gs
