package engine

import (
	"errors"

	"gonum.org/v1/gonum/mat"
)

// ErrSingularFactorization is returned when the SVD of a system matrix
// cannot be computed.
var ErrSingularFactorization = errors.New("engine: factorization failed")

// rcond below which singular values are treated as zero.
const solveRankTol = 1.0e-12

// LeastSquaresSolve returns the minimum-norm least-squares solution of
// A x = b via a rank-revealing SVD. It tolerates singular and redundant
// rows, which occur whenever an active constraint set is degenerate.
func LeastSquaresSolve(a mat.Matrix, b mat.Vector) (*mat.VecDense, error) {
	var svd mat.SVD
	if ok := svd.Factorize(a, mat.SVDFull); !ok {
		return nil, ErrSingularFactorization
	}

	_, c := a.Dims()
	x := mat.NewVecDense(c, nil)

	rank := svd.Rank(solveRankTol)
	if rank == 0 {
		// A is numerically zero; the least-norm solution is zero.
		return x, nil
	}
	svd.SolveVecTo(x, b, rank)
	return x, nil
}
