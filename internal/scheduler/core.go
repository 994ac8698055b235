package scheduler

import (
	"math"

	"github.com/sysu-ecnc-dev/livestream-ops/backend/internal/domain"
)

// conflictPenalty 远大于其他惩罚项，保证冲突的方案不会被选为最优
const conflictPenalty = 1000.0

// randomInitChromosome 随机初始化一个染色体
func (s *Scheduler) randomInitChromosome() *Chromosome {
	genes := make([]*Gene, 0, len(s.slots))

	for i, slot := range s.slots {
		genes = append(genes, &Gene{
			snapshotID: slot.ID,
			slot:       i,
			assigneeID: s.pick(s.candidates[slot.ID]),
			hours:      hoursOf(slot),
		})
	}

	return &Chromosome{
		genes: genes,
	}
}

func (s *Scheduler) pick(ids []int64) *int64 {
	if len(ids) == 0 {
		return nil
	}
	id := ids[s.rng.Intn(len(ids))]
	return &id
}

/**
 * 计算染色体的适应度
 * fitness = - conflictPenalty * conflicts - notWorkPenalty - FairnessWeight * fairnessPenalty
 * 其中:
 * 		1. conflicts 为同一员工同一时间被分配到多个班次的次数
 * 		2. notWorkPenalty 为没有任何班次的员工数
 * 		3. fairnessPenalty 为工时的方差
 */
func (s *Scheduler) calcFitness(ch *Chromosome) {
	userWorkCnt := make(map[int64]float64)
	for _, u := range s.users {
		if u.IsActive && (u.HasRole(domain.RoleHost) || u.HasRole(domain.RoleAssistant)) {
			userWorkCnt[u.ID] = s.baseHours[u.ID]
		}
	}

	conflicts := 0
	for i, gene := range ch.genes {
		if gene.assigneeID == nil {
			continue
		}
		userWorkCnt[*gene.assigneeID] += gene.hours

		for _, other := range ch.genes[i+1:] {
			if other.assigneeID != nil && *other.assigneeID == *gene.assigneeID && overlaps(s.slots[gene.slot], s.slots[other.slot]) {
				conflicts++
			}
		}
	}

	notWorkPenalty := 0.0
	for _, workCnt := range userWorkCnt {
		if workCnt == 0 {
			notWorkPenalty += 1
		}
	}

	// 计算 fairnessPenalty（即方差）
	variance := 0.0
	if len(userWorkCnt) > 0 {
		avgWorkCnt := 0.0
		for _, workCnt := range userWorkCnt {
			avgWorkCnt += workCnt
		}
		avgWorkCnt /= float64(len(userWorkCnt))

		for _, workCnt := range userWorkCnt {
			variance += math.Pow(workCnt-avgWorkCnt, 2)
		}
		variance /= float64(len(userWorkCnt))
	}

	ch.fitness = -conflictPenalty*float64(conflicts) - notWorkPenalty - s.parameters.FairnessWeight*variance
}

// 使用轮盘赌来进行选择，适应度为负数，先平移到正数区间
func (s *Scheduler) selectByRoulette(pop []*Chromosome) *Chromosome {
	minFit := math.MaxFloat64
	for _, ch := range pop {
		minFit = math.Min(minFit, ch.fitness)
	}

	sumFit := 0.0
	for _, ch := range pop {
		sumFit += ch.fitness - minFit + 1
	}
	pick := s.rng.Float64() * sumFit
	partial := 0.0

	for _, ch := range pop {
		partial += ch.fitness - minFit + 1
		if partial >= pick {
			return ch
		}
	}

	return pop[len(pop)-1]
}

// 单点交叉
func (s *Scheduler) singlePointCrossover(ch1 *Chromosome, ch2 *Chromosome) {
	length := len(ch1.genes)
	if length != len(ch2.genes) || length == 0 {
		return
	}

	point := s.rng.Intn(length)
	for i := point; i < length; i++ {
		ch1.genes[i], ch2.genes[i] = ch2.genes[i], ch1.genes[i]
	}
}

// 变异：以一定概率为班次重新选择负责人
func (s *Scheduler) mutate(ch *Chromosome) {
	for _, gene := range ch.genes {
		if s.rng.Float64() > s.parameters.MutationRate {
			continue
		}

		candidates := []int64{}
		for _, id := range s.candidates[gene.snapshotID] {
			if gene.assigneeID != nil && *gene.assigneeID == id {
				continue
			}
			candidates = append(candidates, id)
		}

		if picked := s.pick(candidates); picked != nil {
			gene.assigneeID = picked
		}
	}
}
