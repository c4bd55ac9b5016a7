//go:build cgo
// +build cgo

package poisson

/*
#cgo CFLAGS: -march=native -mavx -mavx2
#cgo LDFLAGS: -lopenblas -llapacke -lgfortran -lm -lpthread
#include <cblas.h>
#include <lapacke.h>
*/
import "C"

import (
	"fmt"

	"gonum.org/v1/gonum/blas/blas64"
	netblas "gonum.org/v1/netlib/blas/netlib"
)

// The dense factorization runs on whatever blas64 backend is registered;
// with cgo available, route it through OpenBLAS.
func init() {
	blas64.Use(netblas.Implementation{})
	fmt.Println("Using netlib to accelerate BLAS")
}
