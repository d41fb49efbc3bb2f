package assigner

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func sumSizes(sizes []int) int {
	sum := 0
	for _, size := range sizes {
		sum += size
	}
	return sum
}

func TestPlanClassSizes(t *testing.T) {
	t.Run("大小班混合", func(t *testing.T) {
		sizes := planClassSizes(25, 2, 1, 5)
		require.Equal(t, []int{10, 10, 5}, sizes)
	})

	t.Run("只有大班时平均分配", func(t *testing.T) {
		sizes := planClassSizes(10, 3, 0, 0)
		require.Equal(t, []int{4, 3, 3}, sizes)
	})

	t.Run("只有小班时忽略名义班额", func(t *testing.T) {
		sizes := planClassSizes(10, 0, 3, 30)
		require.Equal(t, []int{4, 3, 3}, sizes)
	})

	t.Run("小班装不下全部学生时退化为平均分配", func(t *testing.T) {
		sizes := planClassSizes(10, 2, 5, 5)
		require.Len(t, sizes, 7)
		require.Equal(t, 10, sumSizes(sizes))
	})

	t.Run("小班占满学生后大班仍然分得到人", func(t *testing.T) {
		sizes := planClassSizes(5, 3, 1, 3)
		require.Len(t, sizes, 4)
		require.Equal(t, 5, sumSizes(sizes))
		for _, size := range sizes {
			require.GreaterOrEqual(t, size, 1)
		}
	})

	t.Run("没有任何班级配置", func(t *testing.T) {
		sizes := planClassSizes(7, 0, 0, 0)
		require.Equal(t, []int{7}, sizes)
	})
}

func TestPlanClassSizesInvariants(t *testing.T) {
	for n := 1; n <= 60; n++ {
		for big := 0; big <= 4; big++ {
			for small := 0; small <= 3; small++ {
				for _, smallSize := range []int{1, 5, 20} {
					sizes := planClassSizes(n, big, small, smallSize)
					require.Equal(t, n, sumSizes(sizes),
						"n=%d big=%d small=%d smallSize=%d", n, big, small, smallSize)

					classes := big + small
					if classes < 1 {
						classes = 1
					}
					if n >= classes {
						for _, size := range sizes {
							require.GreaterOrEqual(t, size, 1,
								"n=%d big=%d small=%d smallSize=%d sizes=%v", n, big, small, smallSize, sizes)
						}
					}
				}
			}
		}
	}
}

func TestFitExplicitSizes(t *testing.T) {
	t.Run("总数一致时原样返回", func(t *testing.T) {
		sizes := fitExplicitSizes([]int{10, 10, 5}, 25)
		require.Equal(t, []int{10, 10, 5}, sizes)
	})

	t.Run("按比例缩放到实际人数", func(t *testing.T) {
		sizes := fitExplicitSizes([]int{10, 10}, 30)
		require.Equal(t, []int{15, 15}, sizes)
	})

	t.Run("缩放后的偏差被修正", func(t *testing.T) {
		sizes := fitExplicitSizes([]int{3, 3, 3}, 7)
		require.Len(t, sizes, 3)
		require.Equal(t, 7, sumSizes(sizes))
	})
}

func TestFixSizeSum(t *testing.T) {
	require.Equal(t, []int{4, 3, 3}, fixSizeSum([]int{3, 3, 3}, 10))
	require.Equal(t, []int{2, 2, 3}, fixSizeSum([]int{3, 3, 3}, 7))
	require.Equal(t, []int{3, 3, 3}, fixSizeSum([]int{3, 3, 3}, 9))
}
