package lottery

import (
	"github.com/kai-tanaka-dev/SecretSphere/fhe"
	"golang.org/x/xerrors"
)

// Reward tiers in points.
const (
	rewardBoth   uint32 = 1000
	rewardSingle uint32 = 100
	rewardNone   uint32 = 0
)

// digitRange is the number of possible winning digits, drawn in [1,9].
const digitRange uint32 = 9

// winningDigit produces a fresh encrypted digit in [1,9]. The generator
// output spans 2^32 values so the remainder keeps a bias of 2^32 mod 9 = 4
// over 477 million draws per digit, which is acceptable here.
func winningDigit(algebra fhe.Algebra) (fhe.EncryptedInt, error) {
	raw, err := algebra.Random()
	if err != nil {
		return fhe.EncryptedInt{}, xerrors.Errorf("random: %v", err)
	}

	offset, err := algebra.Remainder(raw, digitRange)
	if err != nil {
		return fhe.EncryptedInt{}, xerrors.Errorf("remainder: %v", err)
	}

	one, err := algebra.Constant(1)
	if err != nil {
		return fhe.EncryptedInt{}, xerrors.Errorf("constant: %v", err)
	}

	return algebra.Add(offset, one)
}

// computeReward evaluates the tiered reward of a ticket without ever
// branching on a plaintext. Both matches pay 1000, exactly one pays 100,
// none pays 0. The selection runs over ciphertexts only.
func computeReward(algebra fhe.Algebra, firstGuess, secondGuess,
	winFirst, winSecond fhe.EncryptedInt) (fhe.EncryptedInt, error) {

	firstMatch, err := algebra.Equals(firstGuess, winFirst)
	if err != nil {
		return fhe.EncryptedInt{}, xerrors.Errorf("first compare: %v", err)
	}

	secondMatch, err := algebra.Equals(secondGuess, winSecond)
	if err != nil {
		return fhe.EncryptedInt{}, xerrors.Errorf("second compare: %v", err)
	}

	zero, err := algebra.Constant(rewardNone)
	if err != nil {
		return fhe.EncryptedInt{}, xerrors.Errorf("constant: %v", err)
	}

	one, err := algebra.Constant(1)
	if err != nil {
		return fhe.EncryptedInt{}, xerrors.Errorf("constant: %v", err)
	}

	// matches = [first matched] + [second matched], an encrypted 0, 1 or 2.
	firstBit, err := algebra.Select(firstMatch, one, zero)
	if err != nil {
		return fhe.EncryptedInt{}, xerrors.Errorf("first bit: %v", err)
	}

	secondBit, err := algebra.Select(secondMatch, one, zero)
	if err != nil {
		return fhe.EncryptedInt{}, xerrors.Errorf("second bit: %v", err)
	}

	matches, err := algebra.Add(firstBit, secondBit)
	if err != nil {
		return fhe.EncryptedInt{}, xerrors.Errorf("match count: %v", err)
	}

	two, err := algebra.Constant(2)
	if err != nil {
		return fhe.EncryptedInt{}, xerrors.Errorf("constant: %v", err)
	}

	bothMatched, err := algebra.Equals(matches, two)
	if err != nil {
		return fhe.EncryptedInt{}, xerrors.Errorf("both compare: %v", err)
	}

	oneMatched, err := algebra.Equals(matches, one)
	if err != nil {
		return fhe.EncryptedInt{}, xerrors.Errorf("single compare: %v", err)
	}

	jackpot, err := algebra.Constant(rewardBoth)
	if err != nil {
		return fhe.EncryptedInt{}, xerrors.Errorf("constant: %v", err)
	}

	consolation, err := algebra.Constant(rewardSingle)
	if err != nil {
		return fhe.EncryptedInt{}, xerrors.Errorf("constant: %v", err)
	}

	partial, err := algebra.Select(oneMatched, consolation, zero)
	if err != nil {
		return fhe.EncryptedInt{}, xerrors.Errorf("partial select: %v", err)
	}

	return algebra.Select(bothMatched, jackpot, partial)
}
