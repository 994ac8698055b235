package scheduler

import (
	"errors"
	"fmt"
	"math"
	"math/rand"
	"sort"
	"time"

	"github.com/sysu-ecnc-dev/livestream-ops/backend/internal/domain"
)

var ErrNothingToAssign = errors.New("没有需要分配的班次")

type Scheduler struct {
	parameters *Parameters
	rng        *rand.Rand
	users      []*domain.User
	slots      []*domain.Snapshot // 需要分配的班次
	fixed      []*domain.Snapshot // 已有负责人的班次，只参与冲突和工作量计算
	candidates map[int64][]int64  // {snapshotID: [userID1, userID2, ...]}
	baseHours  map[int64]float64  // 已有负责人的工时
}

// New 根据一段时间内的班次和员工构建调度器，只为没有负责人的班次生成建议
func New(parameters *Parameters, users []*domain.User, livestreams []*domain.Livestream) (*Scheduler, error) {
	seed := parameters.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	s := &Scheduler{
		parameters: parameters,
		rng:        rand.New(rand.NewSource(seed)),
		users:      users,
		slots:      make([]*domain.Snapshot, 0),
		fixed:      make([]*domain.Snapshot, 0),
		candidates: make(map[int64][]int64),
		baseHours:  make(map[int64]float64),
	}

	for _, ls := range livestreams {
		if ls.Fixed {
			return nil, fmt.Errorf("%s 的排班已锁定", ls.Date.Format(domain.DateLayout))
		}
		for _, snap := range ls.Snapshots {
			if snap.Assignee != nil {
				s.fixed = append(s.fixed, snap)
				s.baseHours[*snap.Assignee] += hoursOf(snap)
				continue
			}
			s.slots = append(s.slots, snap)
		}
	}

	if len(s.slots) == 0 {
		return nil, ErrNothingToAssign
	}

	for _, slot := range s.slots {
		ids := []int64{}
		for _, u := range users {
			if !isEligible(u, slot.Period.For) || s.busy(u.ID, slot) {
				continue
			}
			ids = append(ids, u.ID)
		}
		s.candidates[slot.ID] = ids
	}

	return s, nil
}

func hoursOf(snap *domain.Snapshot) float64 {
	return float64(snap.EndMinutes()-snap.StartMinutes()) / 60
}

// busy 判断用户在已有负责人的班次中是否与 slot 时间冲突
func (s *Scheduler) busy(userID int64, slot *domain.Snapshot) bool {
	for _, f := range s.fixed {
		if *f.Assignee == userID && overlaps(f, slot) {
			return true
		}
	}
	return false
}

func (s *Scheduler) Schedule() ([]domain.AssignmentSuggestion, error) {
	// 生成初始种群
	pop := make([]*Chromosome, s.parameters.PopulationSize)
	for i := 0; i < int(s.parameters.PopulationSize); i++ {
		pop[i] = s.randomInitChromosome()
		s.calcFitness(pop[i])
	}

	bestChromosomeEver := &Chromosome{
		genes:   nil,
		fitness: -math.MaxFloat64,
	}

	for gen := 0; gen < int(s.parameters.MaxGenerations); gen++ {
		// 找到本代最佳样本
		genBestIndex := 0
		for i := 1; i < len(pop); i++ {
			if pop[i].fitness > pop[genBestIndex].fitness {
				genBestIndex = i
			}
		}

		if pop[genBestIndex].fitness > bestChromosomeEver.fitness {
			// 深拷贝，防止后续繁殖修改基因
			bestChromosomeEver = pop[genBestIndex].clone()
		}

		// 繁殖
		newPop := make([]*Chromosome, 0, s.parameters.PopulationSize)

		// 保留精英
		sort.Slice(pop, func(i, j int) bool {
			return pop[i].fitness > pop[j].fitness
		})
		for _, elite := range pop[:min(int(s.parameters.EliteCount), len(pop))] {
			newPop = append(newPop, elite.clone())
		}

		for len(newPop) < int(s.parameters.PopulationSize) {
			p1 := s.selectByRoulette(pop).clone()
			p2 := s.selectByRoulette(pop).clone()

			if s.rng.Float64() < s.parameters.CrossoverRate {
				s.singlePointCrossover(p1, p2)
			}

			s.mutate(p1)
			s.mutate(p2)

			newPop = append(newPop, p1)
			if len(newPop) < int(s.parameters.PopulationSize) {
				newPop = append(newPop, p2)
			}
		}

		for i := range pop {
			pop[i] = newPop[i]
			s.calcFitness(pop[i])
		}
	}

	for _, ch := range pop {
		if ch.fitness > bestChromosomeEver.fitness {
			bestChromosomeEver = ch.clone()
		}
	}

	// 返回结果
	result := make([]domain.AssignmentSuggestion, 0, len(bestChromosomeEver.genes))
	for _, gene := range bestChromosomeEver.genes {
		if gene.assigneeID == nil {
			continue
		}
		result = append(result, domain.AssignmentSuggestion{
			SnapshotID: gene.snapshotID,
			Assignee:   *gene.assigneeID,
		})
	}

	if err := s.validate(result); err != nil {
		return nil, err
	}

	return result, nil
}

// validate 检查结果中没有同一员工在同一时间被分配到两个班次
func (s *Scheduler) validate(result []domain.AssignmentSuggestion) error {
	bySnapshot := make(map[int64]*domain.Snapshot, len(s.slots))
	for _, slot := range s.slots {
		bySnapshot[slot.ID] = slot
	}

	for i, a := range result {
		if !containsID(s.candidates[a.SnapshotID], a.Assignee) {
			return fmt.Errorf("员工 %d 不能负责班次 %d", a.Assignee, a.SnapshotID)
		}
		for _, b := range result[i+1:] {
			if a.Assignee == b.Assignee && overlaps(bySnapshot[a.SnapshotID], bySnapshot[b.SnapshotID]) {
				return fmt.Errorf("员工 %d 在班次 %d 和 %d 中时间冲突", a.Assignee, a.SnapshotID, b.SnapshotID)
			}
		}
	}
	return nil
}

func containsID(ids []int64, id int64) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}
