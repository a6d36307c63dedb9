// Package spektrum decodes and encodes the 16-byte frames of Spektrum
// satellite receivers and keeps the channel values of a receiver session.
//
// A frame starts with a 2-byte header followed by 7 big-endian slots.
// Each slot packs a channel ID and a raw sample, either 6+10 bits
// (1024 steps) or 4+11 bits (2048 steps) depending on the system the
// receiver is bound with. In internal bind modes the header carries a
// fades counter byte and the system byte, in external modes it's a
// 16-bit fades counter.
package spektrum
