package scheduler

// Gene: 表示对某个班次的分配决策
type Gene struct {
	snapshotID int64
	slot       int     // 在 Scheduler.slots 中的下标
	assigneeID *int64  // 为 nil 表示这个班次没有可用的人选
	hours      float64 // 班次时长
}

// Chromosome: 整个排班表
type Chromosome struct {
	genes   []*Gene
	fitness float64
}

func (ch *Chromosome) clone() *Chromosome {
	genes := make([]*Gene, len(ch.genes))
	for i, g := range ch.genes {
		gene := *g
		genes[i] = &gene
	}
	return &Chromosome{genes: genes, fitness: ch.fitness}
}

// 遗传算法参数
type Parameters struct {
	PopulationSize int32   // 种群大小
	MaxGenerations int32   // 最大迭代次数
	CrossoverRate  float64 // 交叉概率
	MutationRate   float64 // 变异概率
	EliteCount     int32   // 精英数量
	FairnessWeight float64 // 公平性权重
	Seed           int64   // 随机种子，为 0 时使用当前时间
}

func DefaultParameters() *Parameters {
	return &Parameters{
		PopulationSize: 60,
		MaxGenerations: 200,
		CrossoverRate:  0.8,
		MutationRate:   0.05,
		EliteCount:     2,
		FairnessWeight: 0.5,
	}
}
