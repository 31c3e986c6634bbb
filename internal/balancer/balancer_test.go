package balancer_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/vicharanashala/ajrasakha-sub003/internal/balancer"
	"github.com/vicharanashala/ajrasakha-sub003/internal/model"
)

func assignments(n int) []model.Assignment {
	out := make([]model.Assignment, n)
	for i := range out {
		out[i] = model.Assignment{QuestionID: int64(i + 1), ExpertID: 100}
	}
	return out
}

var _ = Describe("PoolSize", func() {
	DescribeTable("clamps half the CPUs to [2, 6]",
		func(cpus, want int) {
			Expect(balancer.PoolSize(cpus)).To(Equal(want))
		},
		Entry("single core", 1, 2),
		Entry("four cores", 4, 2),
		Entry("eight cores", 8, 4),
		Entry("twelve cores", 12, 6),
		Entry("sixty four cores", 64, 6),
	)
})

var _ = Describe("Chunk", func() {
	It("splits 13 assignments over 6 workers into ceil-sized chunks", func() {
		chunks := balancer.Chunk(assignments(13), 6)

		sizes := make([]int, len(chunks))
		for i, c := range chunks {
			sizes[i] = len(c)
		}
		Expect(sizes).To(Equal([]int{3, 3, 3, 3, 1}))
	})

	It("keeps every assignment exactly once and in order", func() {
		in := assignments(17)
		var flat []model.Assignment
		for _, c := range balancer.Chunk(in, 4) {
			flat = append(flat, c...)
		}
		Expect(flat).To(Equal(in))
	})

	It("returns fewer chunks than workers for tiny inputs", func() {
		Expect(balancer.Chunk(assignments(2), 6)).To(HaveLen(2))
	})

	It("returns nothing for an empty plan", func() {
		Expect(balancer.Chunk(nil, 6)).To(BeEmpty())
	})

	It("does not let appends on one chunk leak into the next", func() {
		chunks := balancer.Chunk(assignments(4), 2)
		_ = append(chunks[0], model.Assignment{QuestionID: 99})
		Expect(chunks[1][0].QuestionID).To(Equal(int64(3)))
	})
})

var _ = Describe("Plan", func() {
	It("prefers the least loaded expert and spreads consecutive picks", func() {
		loads := []model.ExpertLoad{{ExpertID: 1, Open: 2}, {ExpertID: 2, Open: 0}}
		questions := []model.Question{{ID: 10, CreatedBy: 50}, {ID: 11, CreatedBy: 50}, {ID: 12, CreatedBy: 50}}

		plan := balancer.Plan(questions, loads)

		Expect(plan).To(Equal([]model.Assignment{
			{QuestionID: 10, ExpertID: 2},
			{QuestionID: 11, ExpertID: 2},
			{QuestionID: 12, ExpertID: 1},
		}))
	})

	It("never routes a question to its author", func() {
		loads := []model.ExpertLoad{{ExpertID: 1, Open: 0}, {ExpertID: 2, Open: 5}}
		plan := balancer.Plan([]model.Question{{ID: 10, CreatedBy: 1}}, loads)
		Expect(plan).To(Equal([]model.Assignment{{QuestionID: 10, ExpertID: 2}}))
	})

	It("skips questions only their author could take", func() {
		loads := []model.ExpertLoad{{ExpertID: 1}}
		Expect(balancer.Plan([]model.Question{{ID: 10, CreatedBy: 1}}, loads)).To(BeEmpty())
	})

	It("returns nothing without experts", func() {
		Expect(balancer.Plan([]model.Question{{ID: 10}}, nil)).To(BeNil())
	})
})
